package anime

import (
	"io"
	"net"
	"time"

	log "github.com/s00500/env_logger"
)

// DefaultSimulatorAddr is where anime-sim listens unless told otherwise.
const DefaultSimulatorAddr = "127.0.0.1:5359"

// TCPClient carries reports to a simulator over TCP. Every report is sent as
// exactly ReportLength bytes.
type TCPClient struct {
	conn net.Conn
}

// OpenTCP connects to a simulator and returns a session for the variant it
// renders.
func OpenTCP(addr string, v Variant) (*Session, error) {
	if !v.Supported() {
		return nil, &UnsupportedVariantError{Name: v.String()}
	}
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, &DeviceError{Op: "dial simulator", Err: err}
	}
	log.Printf("Connected to AniMe simulator at %s as %s\n", addr, v)
	s := NewSession(&TCPClient{conn: conn}, v)
	s.serial = "tcp:" + addr
	return s, nil
}

func (t *TCPClient) Close() error {
	return t.conn.Close()
}

func (t *TCPClient) SendFeatureReport(payload []byte) (int, error) {
	buffer := make([]byte, ReportLength)
	copy(buffer, payload)
	return t.conn.Write(buffer)
}

func (t *TCPClient) Write(data []byte) (int, error) {
	return t.conn.Write(data)
}

func (t *TCPClient) Read(data []byte) (int, error) {
	return t.conn.Read(data)
}

// ReadReport reads one fixed size report from a simulator stream.
func ReadReport(r io.Reader) ([]byte, error) {
	buf := make([]byte, ReportLength)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
