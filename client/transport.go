package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"manaclient/protocol"
)

// DialFunc 建立到服务器的字节流连接
type DialFunc func(ctx context.Context, addr string) (io.ReadWriteCloser, error)

// Dial 按地址 scheme 选择传输：tcp://host:port 或 ws(s)://host/path
func Dial(ctx context.Context, addr string) (io.ReadWriteCloser, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("parse server address: %w", err)
	}
	switch u.Scheme {
	case "tcp", "":
		host := u.Host
		if host == "" {
			host = addr
		}
		var d net.Dialer
		return d.DialContext(ctx, "tcp", host)
	case "ws", "wss":
		ws, _, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
		if err != nil {
			return nil, err
		}
		return newWSConn(ws), nil
	default:
		return nil, fmt.Errorf("unsupported server scheme %q", u.Scheme)
	}
}

// wsConn 把 WebSocket 二进制帧适配为连续字节流
type wsConn struct {
	ws *websocket.Conn
	r  io.Reader
}

func newWSConn(ws *websocket.Conn) *wsConn {
	ws.SetReadLimit(1 << 20) // 1MB
	return &wsConn{ws: ws}
}

func (c *wsConn) Read(p []byte) (int, error) {
	for {
		if c.r == nil {
			mt, r, err := c.ws.NextReader()
			if err != nil {
				return 0, err
			}
			// 游戏协议只走二进制帧
			if mt != websocket.BinaryMessage {
				continue
			}
			c.r = r
		}
		n, err := c.r.Read(p)
		if err == io.EOF {
			c.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *wsConn) Write(p []byte) (int, error) {
	_ = c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := c.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConn) Close() error { return c.ws.Close() }

// readPump 独立协程：读取字节、切分消息、按到达顺序交给逻辑线程
// 只有在所有已切分的消息入队之后才上报连接错误
func readPump(conn io.Reader, framer *protocol.Framer, inbox chan<- *protocol.MessageIn, lost chan<- error, done <-chan struct{}) {
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			_, _ = framer.Write(buf[:n])
			for {
				msg, ferr := framer.Next()
				if ferr != nil {
					report(lost, ferr, done)
					return
				}
				if msg == nil {
					break
				}
				select {
				case inbox <- msg:
				case <-done:
					return
				}
			}
		}
		if err != nil {
			report(lost, err, done)
			return
		}
	}
}

func report(lost chan<- error, err error, done <-chan struct{}) {
	select {
	case lost <- err:
	case <-done:
	}
}
