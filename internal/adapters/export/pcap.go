package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/lcalzada-xor/wraith/internal/core/domain"
)

const snapLen = 65536

// PcapExporter writes completed handshakes as pcap files readable by
// aircrack-ng and hashcat tooling.
type PcapExporter struct {
	dir    string
	logger *slog.Logger
}

// NewPcapExporter creates dir if needed and returns an exporter writing into it.
func NewPcapExporter(dir string) (*PcapExporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create capture dir: %w", err)
	}
	return &PcapExporter{dir: dir, logger: slog.With("component", "export")}, nil
}

// Filename is the capture file name used for bssid.
func Filename(bssid domain.MACAddress) string {
	return strings.ReplaceAll(bssid.String(), ":", "") + "_handshake.pcap"
}

// Export writes the frames as raw 802.11 packets and returns the file path.
// Frames carry no capture timestamps of their own, so they are stamped
// relative to the completion time, one microsecond apart, in capture order.
func (e *PcapExporter) Export(state domain.HandshakeState, frames []domain.Frame) (string, error) {
	if len(frames) == 0 {
		return "", fmt.Errorf("%w: no frames retained for %s", domain.ErrNoTargets, state.BSSID)
	}

	path := filepath.Join(e.dir, Filename(state.BSSID))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create pcap: %w", err)
	}
	defer f.Close()

	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(snapLen, layers.LinkTypeIEEE802_11); err != nil {
		return "", fmt.Errorf("write pcap header: %w", err)
	}

	base := state.CaptureTime.Add(-time.Duration(len(frames)) * time.Microsecond)
	for i, frame := range frames {
		ci := gopacket.CaptureInfo{
			Timestamp:     base.Add(time.Duration(i+1) * time.Microsecond),
			CaptureLength: len(frame),
			Length:        len(frame),
		}
		if err := w.WritePacket(ci, frame); err != nil {
			return "", fmt.Errorf("write packet %d: %w", i, err)
		}
	}

	if err := f.Sync(); err != nil {
		return "", err
	}
	e.logger.Info("Handshake exported", "bssid", state.BSSID, "path", path, "frames", len(frames))
	return path, nil
}
