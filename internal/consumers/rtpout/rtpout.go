// Package rtpout is a consumer that packetizes mixed frames as RTP over
// UDP, with periodic RTCP sender reports. It buffers internally and drops
// frames when the wire falls behind; the channel loop never blocks on it.
package rtpout

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pion/rtcp"
	"github.com/pion/rtp"

	"github.com/castkit/playoutd/internal/core/format"
	"github.com/castkit/playoutd/internal/core/frame"
	"github.com/castkit/playoutd/internal/core/output"
	"github.com/castkit/playoutd/internal/core/timecode"
	"github.com/castkit/playoutd/internal/monitor"
)

const (
	payloadType    = 96
	mtuPayload     = 1400
	queueDepth     = 4
	rtpClockRate   = 90000
	reportInterval = 100 // frames between RTCP sender reports
)

type item struct {
	tc timecode.FrameTimecode
	f  *frame.Frame
}

// Consumer sends every frame it can keep up with to a UDP peer.
type Consumer struct {
	name   string
	id     string
	addr   string
	conn   *net.UDPConn
	logger *slog.Logger

	queue     chan item
	done      chan struct{}
	closeOnce sync.Once

	ssrc   uint32
	seq    uint16
	frames uint32

	sent    atomic.Int64
	dropped atomic.Int64
	octets  atomic.Uint32
	packets atomic.Uint32
}

// New dials the UDP peer and starts the sender.
func New(addr string, logger *slog.Logger) (*Consumer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("rtpout %q: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("rtpout %q: %w", addr, err)
	}

	id := uuid.NewString()
	c := &Consumer{
		name:   fmt.Sprintf("rtp[%s]", addr),
		id:     id,
		addr:   addr,
		conn:   conn,
		logger: logger.With("consumer", "rtpout", "addr", addr),
		queue:  make(chan item, queueDepth),
		done:   make(chan struct{}),
		ssrc:   uuid.New().ID(),
	}

	go c.sender()

	c.logger.Info("RTP consumer started", "id", id)
	return c, nil
}

// Send enqueues the frame, dropping it when the sender is behind.
func (c *Consumer) Send(tc timecode.FrameTimecode, f *frame.Frame, _ format.Descriptor) error {
	select {
	case <-c.done:
		return fmt.Errorf("rtpout %s closed", c.addr)
	default:
	}

	select {
	case c.queue <- item{tc: tc, f: f}:
	default:
		c.dropped.Add(1)
	}
	return nil
}

func (c *Consumer) sender() {
	for {
		select {
		case <-c.done:
			return
		case it := <-c.queue:
			if err := c.sendFrame(it); err != nil {
				c.logger.Warn("RTP send failed", "error", err)
				continue
			}
			c.sent.Add(1)
			c.frames++
			if c.frames%reportInterval == 0 {
				c.sendReport(it.tc)
			}
		}
	}
}

// sendFrame splits the frame image into MTU-sized RTP packets; the last
// packet of the frame carries the marker bit.
func (c *Consumer) sendFrame(it item) error {
	ts := uint32(it.tc.PTS() * (rtpClockRate / 1000))

	payload := it.f.Image
	for offset := 0; offset < len(payload) || offset == 0; offset += mtuPayload {
		end := offset + mtuPayload
		if end > len(payload) {
			end = len(payload)
		}

		pkt := rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				Marker:         end == len(payload),
				PayloadType:    payloadType,
				SequenceNumber: c.seq,
				Timestamp:      ts,
				SSRC:           c.ssrc,
			},
			Payload: payload[offset:end],
		}
		c.seq++

		buf, err := pkt.Marshal()
		if err != nil {
			return err
		}
		if _, err := c.conn.Write(buf); err != nil {
			return err
		}
		c.packets.Add(1)
		c.octets.Add(uint32(len(pkt.Payload)))
	}
	return nil
}

func (c *Consumer) sendReport(tc timecode.FrameTimecode) {
	sr := rtcp.SenderReport{
		SSRC:        c.ssrc,
		RTPTime:     uint32(tc.PTS() * (rtpClockRate / 1000)),
		PacketCount: c.packets.Load(),
		OctetCount:  c.octets.Load(),
	}
	buf, err := sr.Marshal()
	if err != nil {
		c.logger.Warn("RTCP marshal failed", "error", err)
		return
	}
	if _, err := c.conn.Write(buf); err != nil {
		c.logger.Warn("RTCP send failed", "error", err)
	}
}

// Name returns the consumer's display name.
func (c *Consumer) Name() string {
	return c.name
}

// State returns the consumer's monitor snapshot.
func (c *Consumer) State() monitor.State {
	return monitor.State{
		"consumer": c.name,
		"id":       c.id,
		"sent":     c.sent.Load(),
		"dropped":  c.dropped.Load(),
	}
}

// Close stops the sender and closes the socket. Safe to call more than
// once.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

var _ output.Consumer = (*Consumer)(nil)
