// Command vkcli is a minimal demo client: connect to a single endpoint
// or a cluster, issue one command, print the reply. Not a feature-complete
// shell — just enough to exercise the module end to end from a terminal.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aistorehq/vkclient/api"
	"github.com/aistorehq/vkclient/cluster"
	"github.com/aistorehq/vkclient/cmn"
	"github.com/aistorehq/vkclient/cmn/stats"
	"github.com/aistorehq/vkclient/resp"
	"github.com/aistorehq/vkclient/respconn"
)

var flags struct {
	endpoints string
	cluster   bool
	timeout   time.Duration
	user      string
	password  string
}

const helpMsg = `Usage:
	vkcli -endpoints=host:port[,host:port...] [-cluster] VERB [ARG ...]

Examples:
	vkcli -endpoints=localhost:6379 GET mykey
	vkcli -endpoints=localhost:6379 SET mykey myvalue
	vkcli -endpoints=node1:6379,node2:6379 -cluster GET mykey
`

func main() {
	flag.StringVar(&flags.endpoints, "endpoints", "localhost:6379", "comma-separated host:port list")
	flag.BoolVar(&flags.cluster, "cluster", false, "route through cluster discovery instead of a single connection")
	flag.DurationVar(&flags.timeout, "timeout", 10*time.Second, "command timeout")
	flag.StringVar(&flags.user, "user", "", "AUTH username")
	flag.StringVar(&flags.password, "password", "", "AUTH password")
	flag.Usage = func() { fmt.Fprint(os.Stderr, helpMsg) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}
	verb := strings.ToUpper(args[0])
	rest := args[1:]

	if err := run(verb, rest); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(verb string, rest []string) error {
	endpoints := strings.Split(flags.endpoints, ",")
	opts := cmn.BuildOptions(
		cmn.WithEndpoints(endpoints...),
		cmn.WithCredentials(flags.user, flags.password),
		cmn.WithConnectTimeout(flags.timeout),
	)
	reg := stats.NewRegistry()

	ctx, cancel := context.WithTimeout(context.Background(), flags.timeout)
	defer cancel()

	var client *api.Client
	var closeFn func()

	if flags.cluster {
		router, err := cluster.NewRouter(ctx, opts, reg)
		if err != nil {
			return err
		}
		client = api.NewCluster(router)
		closeFn = router.Close
	} else {
		tc, err := respconn.Dial(ctx, endpoints[0], opts.ConnectTimeout, opts.Keepalive)
		if err != nil {
			return err
		}
		conn := respconn.New(tc, endpoints[0], opts, reg)
		if err := conn.Start(ctx); err != nil {
			return err
		}
		client = api.NewDirect(conn)
		closeFn = func() { conn.Close() }
	}
	defer closeFn()

	v, err := rawCommand(ctx, client, verb, rest)
	if err != nil {
		return err
	}
	fmt.Println(render(v))
	return nil
}

// rawCommand issues verb with rest as its literal wire arguments, keyed
// by the first argument (the common convention for single-key commands);
// it bypasses Client's typed methods since the demo accepts arbitrary
// verbs from the command line.
func rawCommand(ctx context.Context, c *api.Client, verb string, rest []string) (resp.Value, error) {
	var keys []string
	if len(rest) > 0 {
		keys = rest[:1]
	}
	args := make([][]byte, len(rest))
	for i, a := range rest {
		args[i] = []byte(a)
	}
	return c.Raw(ctx, verb, keys, args...)
}

func render(v resp.Value) string {
	switch v.Kind {
	case resp.KindArray, resp.KindSet, resp.KindPush:
		parts := make([]string, len(v.Arr))
		for i, e := range v.Arr {
			parts[i] = render(e)
		}
		return "[" + strings.Join(parts, " ") + "]"
	case resp.KindMap:
		parts := make([]string, len(v.Map))
		for i, p := range v.Map {
			parts[i] = render(p.Field) + "=>" + render(p.Val)
		}
		return "{" + strings.Join(parts, " ") + "}"
	case resp.KindNull:
		return "(nil)"
	default:
		if v.IsNullish() {
			return "(nil)"
		}
		return v.String()
	}
}
