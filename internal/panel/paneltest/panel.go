// Package paneltest provides an in-memory controller that speaks the wire
// protocol, for tests of the session and panel packages.
//
// A Panel hands out net.Pipe connections through DialContext, so it can be
// used directly as a session.Dialer:
//
//	p := paneltest.New(key)
//	p.AddObject(message.ObjectZone, 1, paneltest.Object{Name: "FRONT DOOR", Status: message.ZoneStatus{}})
//	t := session.New(session.Config{Address: "panel:4369", PrivateKey: key, Dialer: p})
package paneltest

import (
	"context"
	"encoding/binary"
	"errors"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/muurk/omnilink/internal/message"
	"github.com/muurk/omnilink/internal/protocol"
)

// Object is a controller object with its properties and live status
type Object struct {
	Name    string
	Status  message.ObjectStatus
	Kind    byte
	Area    byte
	Enabled bool
}

// Handler answers one application payload with a response payload
type Handler func(payload []byte) []byte

// Panel is a fake controller
type Panel struct {
	key       protocol.Key
	sessionID [protocol.SessionIDSize]byte

	mu       sync.Mutex
	objects  map[message.ObjectType]map[uint16]*Object
	capacity map[message.ObjectType]uint16
	troubles []message.Trouble
	clock    time.Time
	dst      bool
	codes    map[codeKey]message.CodeValidation
	handlers map[message.MessageType]Handler
	after    map[message.MessageType]func()
	requests [][]byte
	commands []message.CommandRequest
	conns    map[*conn]struct{}
	hold     chan struct{}
	dials    int
	refuse   int
	sessions int
}

type codeKey struct {
	area byte
	code string
}

type conn struct {
	net.Conn
	writeMu sync.Mutex
	key     []byte // set once the session is secured, guarded by Panel.mu
	done    chan struct{}
	once    sync.Once
}

func (c *conn) shutdown() {
	c.once.Do(func() {
		close(c.done)
		_ = c.Close()
	})
}

// New creates a panel configured with the given private key
func New(key protocol.Key) *Panel {
	return &Panel{
		key:       key,
		sessionID: [protocol.SessionIDSize]byte{0x01, 0x02, 0x03, 0x04, 0x05},
		objects:   make(map[message.ObjectType]map[uint16]*Object),
		capacity:  make(map[message.ObjectType]uint16),
		codes:     make(map[codeKey]message.CodeValidation),
		handlers:  make(map[message.MessageType]Handler),
		after:     make(map[message.MessageType]func()),
		conns:     make(map[*conn]struct{}),
		clock:     time.Now(),
	}
}

// SetSessionID sets the id issued to new sessions
func (p *Panel) SetSessionID(id [protocol.SessionIDSize]byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessionID = id
}

// SetCapacity sets the number of addressable objects of a type
func (p *Panel) SetCapacity(o message.ObjectType, n uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.capacity[o] = n
}

// AddObject defines an object, raising the capacity to include it
func (p *Panel) AddObject(o message.ObjectType, id uint16, obj Object) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.objects[o] == nil {
		p.objects[o] = make(map[uint16]*Object)
	}
	p.objects[o][id] = &obj
	if p.capacity[o] < id {
		p.capacity[o] = id
	}
}

// SetStatus changes an object's status without notifying clients
func (p *Panel) SetStatus(o message.ObjectType, id uint16, status message.ObjectStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if obj := p.objects[o][id]; obj != nil {
		obj.Status = status
	}
}

// SetTroubles replaces the active trouble conditions
func (p *Panel) SetTroubles(troubles ...message.Trouble) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.troubles = troubles
}

// SetClock sets the controller clock and daylight saving flag
func (p *Panel) SetClock(t time.Time, dst bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clock = t
	p.dst = dst
}

// Clock returns the controller clock and daylight saving flag
func (p *Panel) Clock() (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clock, p.dst
}

// AddCode registers a security code valid in an area
func (p *Panel) AddCode(area byte, code string, authority message.AuthorityLevel, number byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.codes[codeKey{area, code}] = message.CodeValidation{Authority: authority, CodeNumber: number}
}

// Handle overrides the response to a message type
func (p *Panel) Handle(t message.MessageType, h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[t] = h
}

// AfterResponse runs fn on the serving goroutine each time the response to a
// request of type t has been written, before the next request is read
func (p *Panel) AfterResponse(t message.MessageType, fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.after[t] = fn
}

// Requests returns every application payload received, in order
func (p *Panel) Requests() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.requests))
	copy(out, p.requests)
	return out
}

// RequestCount returns how many requests of a type were received
func (p *Panel) RequestCount(t message.MessageType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, r := range p.requests {
		if message.MessageType(r[2]) == t {
			n++
		}
	}
	return n
}

// WaitForRequests polls until n requests have been received
func (p *Panel) WaitForRequests(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		p.mu.Lock()
		got := len(p.requests)
		p.mu.Unlock()
		if got >= n {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

// Commands returns the controller commands received, in order
func (p *Panel) Commands() []message.CommandRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]message.CommandRequest, len(p.commands))
	copy(out, p.commands)
	return out
}

// Hold delays responses until Release is called. Requests are still recorded.
func (p *Panel) Hold() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.hold == nil {
		p.hold = make(chan struct{})
	}
}

// Release sends any held responses
func (p *Panel) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.hold != nil {
		close(p.hold)
		p.hold = nil
	}
}

// RefuseDials makes the next n dials fail
func (p *Panel) RefuseDials(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refuse = n
}

// Dials returns the number of dial attempts
func (p *Panel) Dials() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dials
}

// Sessions returns the number of sessions secured
func (p *Panel) Sessions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessions
}

// Notify updates object statuses and pushes them to every secured client
// as a sequence 0 extended status notification
func (p *Panel) Notify(o message.ObjectType, records ...message.StatusRecord) {
	p.mu.Lock()
	for _, r := range records {
		if obj := p.objects[o][r.ID]; obj != nil {
			obj.Status = r.Status
		}
	}
	targets := make(map[*conn][]byte)
	for c := range p.conns {
		if c.key != nil {
			targets[c] = c.key
		}
	}
	p.mu.Unlock()

	payload := message.EncodeExtendedStatus(o, records)
	for c, key := range targets {
		_ = c.write(&protocol.Packet{
			Sequence: protocol.NotificationSequence,
			Type:     protocol.PacketTypeApplicationData,
			Payload:  payload,
		}, key)
	}
}

// DropConnections closes every client connection without a termination packet
func (p *Panel) DropConnections() {
	p.mu.Lock()
	conns := make([]*conn, 0, len(p.conns))
	for c := range p.conns {
		conns = append(conns, c)
	}
	p.mu.Unlock()
	for _, c := range conns {
		c.shutdown()
	}
}

// Close releases held responses and drops every connection
func (p *Panel) Close() {
	p.Release()
	p.DropConnections()
}

// DialContext opens a connection to the panel
func (p *Panel) DialContext(_ context.Context, network, _ string) (net.Conn, error) {
	p.mu.Lock()
	p.dials++
	if p.refuse > 0 {
		p.refuse--
		p.mu.Unlock()
		return nil, &net.OpError{Op: "dial", Net: network, Err: errors.New("connection refused")}
	}
	client, server := net.Pipe()
	c := &conn{Conn: server, done: make(chan struct{})}
	p.conns[c] = struct{}{}
	p.mu.Unlock()

	go p.serve(c)
	return client, nil
}

func (p *Panel) serve(c *conn) {
	defer func() {
		p.mu.Lock()
		delete(p.conns, c)
		p.mu.Unlock()
		c.shutdown()
	}()

	var key []byte
	reader := protocol.NewPacketReader(c, func() []byte { return key })

	for {
		pkt, _, err := reader.ReadPacket()
		if err != nil {
			return
		}

		switch pkt.Type {
		case protocol.PacketTypeNewSessionRequest:
			p.mu.Lock()
			sid := p.sessionID
			p.mu.Unlock()
			sessionKey := protocol.DeriveSessionKey(p.key, sid[:])
			key = sessionKey[:]
			ack := &protocol.Packet{
				Sequence: pkt.Sequence,
				Type:     protocol.PacketTypeNewSessionAcknowledge,
				Payload:  append([]byte{0x00, 0x01}, sid[:]...),
			}
			if c.write(ack, nil) != nil {
				return
			}

		case protocol.PacketTypeSecureConnectionRequest:
			p.mu.Lock()
			sid := p.sessionID
			p.mu.Unlock()
			if len(pkt.Payload) < len(sid) || string(pkt.Payload[:len(sid)]) != string(sid[:]) {
				_ = c.write(&protocol.Packet{Sequence: pkt.Sequence, Type: protocol.PacketTypeControllerSessionTerminated}, nil)
				return
			}
			p.mu.Lock()
			c.key = key
			p.sessions++
			p.mu.Unlock()
			ack := &protocol.Packet{
				Sequence: pkt.Sequence,
				Type:     protocol.PacketTypeSecureConnectionAcknowledge,
				Payload:  sid[:],
			}
			if c.write(ack, key) != nil {
				return
			}

		case protocol.PacketTypeClientSessionTerminated:
			return

		case protocol.PacketTypeApplicationData:
			p.mu.Lock()
			p.requests = append(p.requests, pkt.Payload)
			hold := p.hold
			p.mu.Unlock()

			if hold != nil {
				select {
				case <-hold:
				case <-c.done:
					return
				}
			}

			resp := &protocol.Packet{
				Sequence: pkt.Sequence,
				Type:     protocol.PacketTypeApplicationData,
				Payload:  p.respond(pkt.Payload),
			}
			if c.write(resp, key) != nil {
				return
			}

			if len(pkt.Payload) > 2 {
				p.mu.Lock()
				after := p.after[message.MessageType(pkt.Payload[2])]
				p.mu.Unlock()
				if after != nil {
					after()
				}
			}
		}
	}
}

func (c *conn) write(pkt *protocol.Packet, key []byte) error {
	raw, err := pkt.Encode(key)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.SetWriteDeadline(time.Now().Add(time.Second))
	_, err = c.Write(raw)
	return err
}

var (
	ackPayload = message.Envelope(message.TypeAcknowledge, nil)
	nakPayload = message.Envelope(message.TypeNegativeAcknowledge, nil)
	eodPayload = message.Envelope(message.TypeEndOfData, nil)
)

func (p *Panel) respond(payload []byte) []byte {
	if len(payload) < 3 {
		return nakPayload
	}
	t := message.MessageType(payload[2])
	data := payload[3:]

	p.mu.Lock()
	h := p.handlers[t]
	p.mu.Unlock()
	if h != nil {
		return h(payload)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch t {
	case message.TypeEnableNotifications, message.TypeKeypadEmergency:
		return ackPayload

	case message.TypeCommand:
		if len(data) < 4 {
			return nakPayload
		}
		p.commands = append(p.commands, message.CommandRequest{
			Command: message.Command(data[0]),
			Param1:  data[1],
			Param2:  binary.BigEndian.Uint16(data[2:4]),
		})
		return ackPayload

	case message.TypeSetTimeCommand:
		if len(data) < 7 {
			return nakPayload
		}
		p.clock = time.Date(2000+int(data[0]), time.Month(data[1]), int(data[2]),
			int(data[4]), int(data[5]), 0, 0, time.Local)
		p.dst = data[6] != 0
		return ackPayload

	case message.TypeSystemInformationRequest:
		info := []byte{16, 4, 0, 2}
		info = append(info, make([]byte, 25)...)
		copy(info[4:], "5551234")
		return message.Envelope(message.TypeSystemInformation, info)

	case message.TypeSystemStatusRequest:
		c := p.clock
		status := []byte{
			1, byte(c.Year() % 100), byte(c.Month()), byte(c.Day()), byte(c.Weekday()),
			byte(c.Hour()), byte(c.Minute()), byte(c.Second()), boolByte(p.dst),
			6, 30, 19, 45, 190,
		}
		return message.Envelope(message.TypeSystemStatus, status)

	case message.TypeSystemTroublesRequest:
		troubles := make([]byte, 0, len(p.troubles))
		for _, tr := range p.troubles {
			troubles = append(troubles, byte(tr))
		}
		return message.Envelope(message.TypeSystemTroubles, troubles)

	case message.TypeSystemFormatsRequest:
		return message.Envelope(message.TypeSystemFormats, []byte{1, 1, 1})

	case message.TypeObjectTypeCapacitiesRequest:
		if len(data) < 1 {
			return nakPayload
		}
		o := message.ObjectType(data[0])
		n := p.capacity[o]
		return message.Envelope(message.TypeObjectTypeCapacities, []byte{byte(o), byte(n >> 8), byte(n)})

	case message.TypeObjectPropertiesRequest:
		if len(data) < 4 {
			return nakPayload
		}
		return p.properties(message.ObjectType(data[0]), binary.BigEndian.Uint16(data[1:3]), int8(data[3]))

	case message.TypeExtendedObjectStatusRequest:
		if len(data) < 5 {
			return nakPayload
		}
		o := message.ObjectType(data[0])
		start, end := binary.BigEndian.Uint16(data[1:3]), binary.BigEndian.Uint16(data[3:5])
		var records []message.StatusRecord
		for _, id := range p.ids(o) {
			obj := p.objects[o][id]
			if id >= start && id <= end && obj.Status != nil {
				records = append(records, message.StatusRecord{ID: id, Status: obj.Status})
			}
		}
		return message.EncodeExtendedStatus(o, records)

	case message.TypeSecurityCodeValidationReq:
		if len(data) < 5 {
			return nakPayload
		}
		code := make([]byte, 4)
		for i := range code {
			code[i] = '0' + data[1+i]
		}
		v := p.codes[codeKey{data[0], string(code)}]
		return message.Envelope(message.TypeSecurityCodeValidation, []byte{byte(v.Authority), v.CodeNumber})
	}

	return nakPayload
}

// properties answers a properties request. Ids inside the capacity that have
// no object are reported unnamed, like an unconfigured controller slot.
func (p *Panel) properties(o message.ObjectType, index uint16, relative int8) []byte {
	id := index
	switch {
	case relative > 0:
		id = 0
		for _, candidate := range p.ids(o) {
			if candidate > index {
				id = candidate
				break
			}
		}
	case relative < 0:
		id = 0
		ids := p.ids(o)
		for i := len(ids) - 1; i >= 0; i-- {
			if ids[i] < index {
				id = ids[i]
				break
			}
		}
	}
	if id == 0 || id > p.capacity[o] {
		return eodPayload
	}

	props := &message.ObjectProperties{Object: o, Number: id}
	if obj := p.objects[o][id]; obj != nil {
		props.Name = obj.Name
		props.Status = obj.Status
		props.Kind = obj.Kind
		props.Area = obj.Area
		props.Enabled = obj.Enabled
	}
	return message.EncodeObjectProperties(props)
}

func (p *Panel) ids(o message.ObjectType) []uint16 {
	ids := make([]uint16, 0, len(p.objects[o]))
	for id := range p.objects[o] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
