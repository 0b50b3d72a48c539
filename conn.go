package anime

import (
	"io"

	"periph.io/x/conn/v3"
)

// ConnTransport drives a session over any periph conn.Conn, such as a
// recorder in tests or a raw dump file via conntest.RecordRaw. Reports are
// padded to ReportLength.
type ConnTransport struct {
	c conn.Conn
}

// NewConnTransport wraps c.
func NewConnTransport(c conn.Conn) *ConnTransport {
	return &ConnTransport{c: c}
}

func (t *ConnTransport) String() string {
	return "anime(" + t.c.String() + ")"
}

func (t *ConnTransport) SendFeatureReport(payload []byte) (int, error) {
	buf := make([]byte, ReportLength)
	copy(buf, payload)
	if err := t.c.Tx(buf, nil); err != nil {
		return 0, err
	}
	return len(buf), nil
}

func (t *ConnTransport) Write(data []byte) (int, error) {
	if err := t.c.Tx(data, nil); err != nil {
		return 0, err
	}
	return len(data), nil
}

func (t *ConnTransport) Read(data []byte) (int, error) {
	if t.c.Duplex() == conn.Half {
		return 0, io.EOF
	}
	if err := t.c.Tx(nil, data); err != nil {
		return 0, err
	}
	return len(data), nil
}

// Close closes the underlying connection when it supports it.
func (t *ConnTransport) Close() error {
	if c, ok := t.c.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
