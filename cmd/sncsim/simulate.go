// Simulator topologies standing in for the "network transport" spec.md §1
// explicitly excludes from the core: each node is a tiny HTTP server
// exposing one websocket endpoint, nodes dial their downstream peers'
// endpoints and push serialized Packets over the wire exactly as
// recode.go's file transport does, just over a loopback socket instead of
// a file. This is the "in-process gorilla/websocket loopback connections"
// collaborator SPEC_FULL.md §6 describes.
package main

import (
	"bytes"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/xinyu-esg/sparsenc-sub000/snc"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsNode is one simulated peer: it listens for inbound packets on a
// websocket endpoint and can dial out to forward/recode to its downstream
// peers.
type wsNode struct {
	name     string
	ctx      *snc.Context
	params   *snc.Params
	recoder  *snc.Recoder
	server   *http.Server
	listener net.Listener
	inbox    chan *snc.Packet
}

func newWSNode(name string, ctx *snc.Context, p *snc.Params, useRecoder bool, seed int64) (*wsNode, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	n := &wsNode{
		name:     name,
		ctx:      ctx,
		params:   p,
		listener: ln,
		inbox:    make(chan *snc.Packet, 4096),
	}
	if useRecoder {
		n.recoder = snc.NewRecoder(ctx, snc.RAND, 8, seed)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", n.handle)
	n.server = &http.Server{Handler: mux}
	go n.server.Serve(ln)
	return n, nil
}

func (n *wsNode) addr() string { return n.listener.Addr().String() }

func (n *wsNode) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		pk, err := decodePacketBytes(raw, n.params)
		if err != nil {
			continue
		}
		if n.recoder != nil {
			n.recoder.Store(pk)
		}
		select {
		case n.inbox <- pk:
		default:
		}
	}
}

func (n *wsNode) Close() {
	n.server.Close()
}

// dialAndSend opens a websocket connection to target and writes pk as one
// binary frame, closing the connection afterward (one frame per dial keeps
// the simulator's connection bookkeeping trivial at simulator scale).
func dialAndSend(target string, pk *snc.Packet) error {
	u := fmt.Sprintf("ws://%s/ws", target)
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	raw, err := encodePacketBytes(pk)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.BinaryMessage, raw)
}

func encodePacketBytes(pk *snc.Packet) ([]byte, error) {
	var buf bytes.Buffer
	if err := pk.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodePacketBytes(raw []byte, p *snc.Params) (*snc.Packet, error) {
	return snc.ReadPacket(bytes.NewReader(raw), snc.CoesLen(p), p.SizeP)
}

func newSimulateCmd() *cobra.Command {
	var pf paramFlags
	var topology string
	var hops, count int

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "run an in-process loopback topology (butterfly, line, or two-hop recoder)",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := pf.toParams()
			if p.DataSize <= 0 {
				return fmt.Errorf("--datasize must be positive")
			}
			buf := make([]byte, p.DataSize)
			for i := range buf {
				buf[i] = byte(i * 31)
			}
			switch topology {
			case "butterfly":
				return simulateButterfly(p, buf, count)
			case "line":
				return simulateLine(p, buf, hops, count)
			case "two-hop":
				return simulateTwoHop(p, buf, count)
			default:
				return fmt.Errorf("unknown topology %q (want butterfly, line, or two-hop)", topology)
			}
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVar(&topology, "topology", "two-hop", "butterfly, line, or two-hop")
	cmd.Flags().IntVar(&hops, "hops", 3, "number of relay hops for the line topology")
	cmd.Flags().IntVar(&count, "count", 0, "packets to inject; 0 picks (snum+cnum)*1.25")
	return cmd
}

func defaultCount(ctx *snc.Context, count int) int {
	if count > 0 {
		return count
	}
	return int(float64(ctx.Meta.Snum+ctx.Meta.Cnum) * 1.25)
}

// simulateTwoHop: source -> recoder -> sink. The source streams coded
// packets to the recoder node; the recoder buffers and re-emits recoded
// packets to the sink node; the sink decodes and reports the recovered
// buffer.
func simulateTwoHop(p *snc.Params, buf []byte, count int) error {
	srcCtx, err := snc.Create(p, buf)
	if err != nil {
		return err
	}
	sinkCtx, err := snc.Create(p, nil)
	if err != nil {
		return err
	}
	recoderNode, err := newWSNode("recoder", srcCtx, p, true, 1)
	if err != nil {
		return err
	}
	defer recoderNode.Close()

	dec, err := snc.NewDecoder(p, snc.GGDecoderKind)
	if err != nil {
		return err
	}
	sinkNode, err := newWSNode("sink", sinkCtx, p, false, 0)
	if err != nil {
		return err
	}
	defer sinkNode.Close()

	n := defaultCount(srcCtx, count)
	for i := 0; i < n; i++ {
		if err := dialAndSend(recoderNode.addr(), srcCtx.Generate()); err != nil {
			return fmt.Errorf("source->recoder send %d: %w", i, err)
		}
	}
	drainInbox(recoderNode, n, 500*time.Millisecond)

	emitted := 0
	for i := 0; i < n && !dec.Finished(); i++ {
		pk, err := recoderNode.recoder.Recode()
		if err != nil {
			break
		}
		if err := dialAndSend(sinkNode.addr(), pk); err != nil {
			return fmt.Errorf("recoder->sink send %d: %w", i, err)
		}
		emitted++
	}
	for pk := range drainN(sinkNode.inbox, emitted, 500*time.Millisecond) {
		if err := dec.Process(pk); err != nil {
			return err
		}
	}
	return reportResult("two-hop", dec, buf)
}

// simulateLine chains `hops` recoder nodes between source and sink, each
// recoding before forwarding — the n-hop line topology.
func simulateLine(p *snc.Params, buf []byte, hops, count int) error {
	srcCtx, err := snc.Create(p, buf)
	if err != nil {
		return err
	}
	nodes := make([]*wsNode, hops)
	for i := 0; i < hops; i++ {
		emptyCtx, err := snc.Create(p, nil)
		if err != nil {
			return err
		}
		nodes[i], err = newWSNode(fmt.Sprintf("hop%d", i), emptyCtx, p, true, int64(i+1))
		if err != nil {
			return err
		}
		defer nodes[i].Close()
	}
	dec, err := snc.NewDecoder(p, snc.GGDecoderKind)
	if err != nil {
		return err
	}
	sinkCtx, err := snc.Create(p, nil)
	if err != nil {
		return err
	}
	sinkNode, err := newWSNode("sink", sinkCtx, p, false, 0)
	if err != nil {
		return err
	}
	defer sinkNode.Close()

	n := defaultCount(srcCtx, count)
	for i := 0; i < n; i++ {
		if err := dialAndSend(nodes[0].addr(), srcCtx.Generate()); err != nil {
			return fmt.Errorf("source->hop0 send %d: %w", i, err)
		}
	}
	drainInbox(nodes[0], n, 300*time.Millisecond)

	cur := n
	for h := 0; h < hops; h++ {
		var targetAddr string
		if h == hops-1 {
			targetAddr = sinkNode.addr()
		} else {
			targetAddr = nodes[h+1].addr()
		}
		emitted := 0
		for i := 0; i < cur; i++ {
			pk, err := nodes[h].recoder.Recode()
			if err != nil {
				break
			}
			if err := dialAndSend(targetAddr, pk); err != nil {
				return fmt.Errorf("hop%d forward %d: %w", h, i, err)
			}
			emitted++
		}
		if h < hops-1 {
			drainInbox(nodes[h+1], emitted, 300*time.Millisecond)
		}
		cur = emitted
	}
	for pk := range drainN(sinkNode.inbox, cur, 500*time.Millisecond) {
		if err := dec.Process(pk); err != nil {
			return err
		}
	}
	return reportResult(fmt.Sprintf("line(%d hops)", hops), dec, buf)
}

// simulateButterfly is a two-sink butterfly network coding example with a
// single source: the source feeds two relays, both relays feed a shared bottleneck
// recoder, and the bottleneck feeds two independent sinks — demonstrating
// that a single recoded stream through the bottleneck lets both sinks
// recover the full payload, the textbook case for why coding beats routing.
func simulateButterfly(p *snc.Params, buf []byte, count int) error {
	srcCtx, err := snc.Create(p, buf)
	if err != nil {
		return err
	}
	relayACtx, _ := snc.Create(p, nil)
	relayBCtx, _ := snc.Create(p, nil)
	relayA, err := newWSNode("relayA", relayACtx, p, true, 11)
	if err != nil {
		return err
	}
	defer relayA.Close()
	relayB, err := newWSNode("relayB", relayBCtx, p, true, 13)
	if err != nil {
		return err
	}
	defer relayB.Close()

	bottleneckCtx, _ := snc.Create(p, nil)
	bottleneck, err := newWSNode("bottleneck", bottleneckCtx, p, true, 17)
	if err != nil {
		return err
	}
	defer bottleneck.Close()

	decT1, err := snc.NewDecoder(p, snc.GGDecoderKind)
	if err != nil {
		return err
	}
	decT2, err := snc.NewDecoder(p, snc.GGDecoderKind)
	if err != nil {
		return err
	}
	t1Ctx, _ := snc.Create(p, nil)
	t2Ctx, _ := snc.Create(p, nil)
	sinkT1, err := newWSNode("sinkT1", t1Ctx, p, false, 0)
	if err != nil {
		return err
	}
	defer sinkT1.Close()
	sinkT2, err := newWSNode("sinkT2", t2Ctx, p, false, 0)
	if err != nil {
		return err
	}
	defer sinkT2.Close()

	n := defaultCount(srcCtx, count)
	for i := 0; i < n; i++ {
		pk := srcCtx.Generate()
		pk2 := pk.Clone()
		if err := dialAndSend(relayA.addr(), pk); err != nil {
			return err
		}
		if err := dialAndSend(relayB.addr(), pk2); err != nil {
			return err
		}
	}
	drainInbox(relayA, n, 300*time.Millisecond)
	drainInbox(relayB, n, 300*time.Millisecond)

	fed := 0
	for i := 0; i < n; i++ {
		if pk, err := relayA.recoder.Recode(); err == nil {
			if err := dialAndSend(bottleneck.addr(), pk); err == nil {
				fed++
			}
		}
		if pk, err := relayB.recoder.Recode(); err == nil {
			if err := dialAndSend(bottleneck.addr(), pk); err == nil {
				fed++
			}
		}
	}
	drainInbox(bottleneck, fed, 300*time.Millisecond)

	emitted := 0
	for i := 0; i < fed; i++ {
		pk, err := bottleneck.recoder.Recode()
		if err != nil {
			break
		}
		if err := dialAndSend(sinkT1.addr(), pk.Clone()); err != nil {
			return err
		}
		if err := dialAndSend(sinkT2.addr(), pk); err != nil {
			return err
		}
		emitted++
	}
	for pk := range drainN(sinkT1.inbox, emitted, 500*time.Millisecond) {
		decT1.Process(pk)
	}
	for pk := range drainN(sinkT2.inbox, emitted, 500*time.Millisecond) {
		decT2.Process(pk)
	}
	if err := reportResult("butterfly/T1", decT1, buf); err != nil {
		return err
	}
	return reportResult("butterfly/T2", decT2, buf)
}

func reportResult(label string, dec snc.Decoder, want []byte) error {
	if !dec.Finished() {
		return fmt.Errorf("%s: decoder did not finish (overhead=%d cost=%d)", label, dec.Overhead(), dec.Cost())
	}
	got := dec.Context().Recover()
	ok := len(got) == len(want)
	if ok {
		for i := range got {
			if got[i] != want[i] {
				ok = false
				break
			}
		}
	}
	fmt.Printf("%s: finished, overhead=%d cost=%d match=%v\n", label, dec.Overhead(), dec.Cost(), ok)
	if !ok {
		return fmt.Errorf("%s: recovered buffer mismatch", label)
	}
	return nil
}

func drainInbox(n *wsNode, want int, timeout time.Duration) {
	deadline := time.After(timeout)
	got := 0
	for got < want {
		select {
		case <-n.inbox:
			got++
		case <-deadline:
			return
		}
	}
}

func drainN(ch chan *snc.Packet, want int, timeout time.Duration) chan *snc.Packet {
	out := make(chan *snc.Packet, want)
	deadline := time.After(timeout)
	go func() {
		defer close(out)
		for i := 0; i < want; i++ {
			select {
			case pk := <-ch:
				out <- pk
			case <-deadline:
				return
			}
		}
	}()
	return out
}
