package storage

import (
	"fmt"

	"github.com/lcalzada-xor/wraith/internal/core/domain"
)

func handshakeToModel(st domain.HandshakeState) HandshakeModel {
	return HandshakeModel{
		BSSID:        st.BSSID.String(),
		Channel:      int(st.Channel),
		Messages:     uint8(st.Messages),
		EAPOLPackets: st.EAPOLPackets,
		StartedAt:    st.StartedAt,
		CaptureTime:  st.CaptureTime,
	}
}

func handshakeToDomain(m HandshakeModel) (domain.HandshakeState, error) {
	bssid, err := domain.ParseMAC(m.BSSID)
	if err != nil {
		return domain.HandshakeState{}, fmt.Errorf("stored handshake: %w", err)
	}
	return domain.HandshakeState{
		BSSID:        bssid,
		Channel:      domain.Channel(m.Channel),
		Messages:     domain.MessageSet(m.Messages),
		EAPOLPackets: m.EAPOLPackets,
		StartedAt:    m.StartedAt,
		CaptureTime:  m.CaptureTime,
	}, nil
}

func sessionToModel(s domain.AttackSession) SessionModel {
	m := SessionModel{
		ID:               s.ID,
		Type:             string(s.Type),
		Vendor:           string(s.Vendor),
		Status:           string(s.Status),
		StartTime:        s.StartTime,
		EndTime:          s.EndTime,
		PacketsSent:      s.PacketsSent,
		TransmitFailures: s.TransmitFailures,
		ErrorMessage:     s.ErrorMessage,
	}
	if s.Target != nil {
		m.Target = s.Target.String()
	}
	return m
}

// sessionToDomain drops an unparsable target rather than failing the listing.
func sessionToDomain(m SessionModel) domain.AttackSession {
	s := domain.AttackSession{
		ID:               m.ID,
		Type:             domain.AttackType(m.Type),
		Vendor:           domain.Vendor(m.Vendor),
		Status:           domain.AttackStatus(m.Status),
		StartTime:        m.StartTime,
		EndTime:          m.EndTime,
		PacketsSent:      m.PacketsSent,
		TransmitFailures: m.TransmitFailures,
		ErrorMessage:     m.ErrorMessage,
	}
	if m.Target != "" {
		if mac, err := domain.ParseMAC(m.Target); err == nil {
			s.Target = &mac
		}
	}
	return s
}
