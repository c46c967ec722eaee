// Command pingpong is a minimal end-to-end demonstration of the
// Bearer: it wires a loopback TCP connection into the fixed-file
// table, then drives one recv/send round trip entirely through
// io_uring completions instead of blocking socket calls.
package main

import (
	"fmt"
	"log"
	"net"
	"os"

	"github.com/yaws-rs/io-uring-utils/bearer"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer listener.Close()

	addr := listener.Addr().(*net.TCPAddr)
	client, err := net.Dial("tcp", addr.String())
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer client.Close()

	server, err := listener.Accept()
	if err != nil {
		return fmt.Errorf("accept: %w", err)
	}
	defer server.Close()

	if _, err := client.Write([]byte("PING")); err != nil {
		return fmt.Errorf("write ping: %w", err)
	}

	b, err := bearer.WithCapacity(bearer.Capacity{
		CoreQueue:          64,
		RegisteredFd:       4,
		PendingCompletions: 16,
		Buffers:            2,
	})
	if err != nil {
		return fmt.Errorf("bearer setup: %w", err)
	}
	defer b.Close()

	serverRaw, err := rawFile(server)
	if err != nil {
		return err
	}
	defer serverRaw.Close()

	fixedFd, err := b.Fds().RegisterRecv(int32(serverRaw.Fd()))
	if err != nil {
		return fmt.Errorf("register server fd: %w", err)
	}
	if err := b.Fds().CommitBulk(b.Ring().Fd()); err != nil {
		return fmt.Errorf("commit fixed-fd table: %w", err)
	}

	recvBufID, err := b.CreateBuffers(1, 64)
	if err != nil {
		return fmt.Errorf("create recv buffer: %w", err)
	}
	sendBufID, err := b.CreateBuffers(1, 64)
	if err != nil {
		return fmt.Errorf("create send buffer: %w", err)
	}

	recvKey, err := b.AddRecv(fixedFd, recvBufID)
	if err != nil {
		return fmt.Errorf("add recv: %w", err)
	}
	if _, err := b.SubmitAndWait(1); err != nil {
		return fmt.Errorf("submit recv: %w", err)
	}

	var received string
	b.HandleCompletions(nil, func(_ any, cqe bearer.CQE, record bearer.OpRecord) bearer.SubmissionRecordStatus {
		if cqe.UserData != recvKey {
			return bearer.Retain
		}
		if rec, ok := record.(*bearer.RecvRecord); ok && cqe.Res > 0 {
			received = string(rec.Buffer()[:cqe.Res])
		}
		return bearer.Forget
	})
	fmt.Printf("server received: %q\n", received)

	view, err := b.ViewBufferSelect(sendBufID, 0, 4)
	if err != nil {
		return fmt.Errorf("view buffer: %w", err)
	}
	copy(view, "PONG")

	sendKey, err := b.AddSendSingleBuf(fixedFd, sendBufID)
	if err != nil {
		return fmt.Errorf("add send: %w", err)
	}

	if _, err := b.SubmitAndWait(1); err != nil {
		return fmt.Errorf("submit send: %w", err)
	}
	b.HandleCompletions(nil, func(_ any, cqe bearer.CQE, _ bearer.OpRecord) bearer.SubmissionRecordStatus {
		if cqe.UserData == sendKey {
			fmt.Printf("server sent %d bytes\n", cqe.Res)
		}
		return bearer.Forget
	})

	reply := make([]byte, 4)
	if _, err := client.Read(reply); err != nil {
		return fmt.Errorf("client read: %w", err)
	}
	fmt.Printf("client received: %q\n", string(reply))

	return nil
}

func rawFile(c net.Conn) (*os.File, error) {
	tc, ok := c.(*net.TCPConn)
	if !ok {
		return nil, fmt.Errorf("pingpong: expected *net.TCPConn, got %T", c)
	}
	f, err := tc.File()
	if err != nil {
		return nil, fmt.Errorf("pingpong: dup socket fd: %w", err)
	}
	return f, nil
}
