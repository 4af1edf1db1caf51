// Package respconn_test drives the correlator loop from outside the
// package, the way the teacher separates its ginkgo property suites from
// the plain-testing unit tests living alongside the code they cover.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package respconn_test

import (
	"context"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/aistorehq/vkclient/cmn"
	"github.com/aistorehq/vkclient/cmn/stats"
	"github.com/aistorehq/vkclient/resp"
	"github.com/aistorehq/vkclient/respconn"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

func TestCorrelator(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, t.Name())
}

// echoServer replies to every non-handshake command with the integer
// reply ":1\r\n" but first records the single argument it saw, letting a
// spec assert the order replies arrived in matches the order requests
// were handed to SubmitAsync regardless of how the fake server batches
// its writes.
func echoServer(side net.Conn, seen *[]string) {
	go func() {
		p := resp.NewParser(resp.DefaultLimits())
		var buf []byte
		chunk := make([]byte, 4096)
		for {
			for {
				v, n, err := p.Parse(buf)
				if err != nil {
					break
				}
				buf = buf[n:]
				if v.Kind != resp.KindArray || len(v.Arr) == 0 {
					continue
				}
				verb := strings.ToUpper(v.Arr[0].String())
				switch verb {
				case "HELLO":
					side.Write([]byte("-ERR unknown command 'HELLO'\r\n"))
				case "AUTH", "CLIENT", "SELECT":
					side.Write([]byte("+OK\r\n"))
				default:
					*seen = append(*seen, string(v.Arr[len(v.Arr)-1].Bytes))
					side.Write([]byte(":1\r\n"))
				}
			}
			n, err := side.Read(chunk)
			if err != nil {
				return
			}
			buf = append(buf, chunk[:n]...)
		}
	}()
}

var _ = Describe("Correlator FIFO ordering", func() {
	DescribeTable("replies are delivered to handles in submission order regardless of burst size",
		func(burst int) {
			var seen []string
			client, server := net.Pipe()
			echoServer(server, &seen)

			c := respconn.New(client, "pipe", cmn.DefaultOptions(), stats.NewRegistry())
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			Expect(c.Start(ctx)).To(Succeed())
			defer c.Close()

			handles := make([]*respconn.Handle, burst)
			for i := 0; i < burst; i++ {
				handles[i] = c.SubmitAsync(false, respconn.Encode("INCR", []byte(strconv.Itoa(i))))
			}
			for i := 0; i < burst; i++ {
				_, err := handles[i].Wait(ctx)
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(seen).To(HaveLen(burst))
			for i := 0; i < burst; i++ {
				Expect(seen[i]).To(Equal(strconv.Itoa(i)))
			}
		},
		Entry("single request", 1),
		Entry("small burst", 8),
		Entry("larger burst", 200),
	)
})
