package model

import (
	"bytes"
	"testing"

	"github.com/eclipse/paho.mqtt.golang/packets"
)

func readPacket(t *testing.T, f *Frame) packets.ControlPacket {
	t.Helper()
	cp, err := packets.ReadPacket(bytes.NewReader(f.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	return cp
}

func TestBuildConnectMinimal(t *testing.T) {
	t.Parallel()

	f := NewFrame(1024)
	if err := BuildConnect(f, &ConnectOptions{ClientID: []byte("abc"), KeepAlive: 60}); err != nil {
		t.Fatal(err)
	}

	exp := []byte{0x10, 0x0F, 0x00, 0x04, 'M', 'Q', 'T', 'T', 0x04, 0x02, 0x00, 0x3C, 0x00, 0x03, 'a', 'b', 'c'}
	if !bytes.Equal(f.Bytes(), exp) {
		t.Fatalf("got % X", f.Bytes())
	}
}

func TestBuildConnectAuthAndWill(t *testing.T) {
	t.Parallel()

	f := NewFrame(1024)
	o := ConnectOptions{
		ClientID:    []byte("dev1"),
		KeepAlive:   60,
		Auth:        true,
		Username:    []byte("roan"),
		Password:    []byte("brand"),
		Will:        true,
		WillTopic:   []byte("status/dev1"),
		WillPayload: []byte("offline"),
		WillQoS:     1,
		WillRetain:  true,
	}
	if err := BuildConnect(f, &o); err != nil {
		t.Fatal(err)
	}

	if f.Bytes()[9] != 0x80|0x40|0x20|1<<3|0x04|0x02 {
		t.Fatalf("connect flags %08b", f.Bytes()[9])
	}

	cp, ok := readPacket(t, f).(*packets.ConnectPacket)
	if !ok {
		t.Fatal("not a CONNECT")
	}
	if cp.ProtocolName != "MQTT" || cp.ProtocolVersion != 4 || !cp.CleanSession || cp.Keepalive != 60 {
		t.Fatal("bad connect header", cp)
	}
	if cp.ClientIdentifier != "dev1" {
		t.Fatal(cp.ClientIdentifier)
	}
	if !cp.WillFlag || cp.WillTopic != "status/dev1" || string(cp.WillMessage) != "offline" || cp.WillQos != 1 || !cp.WillRetain {
		t.Fatal("bad will", cp)
	}
	if !cp.UsernameFlag || !cp.PasswordFlag || cp.Username != "roan" || string(cp.Password) != "brand" {
		t.Fatal("bad credentials", cp)
	}
}

func TestBuildPublish(t *testing.T) {
	t.Parallel()

	f := NewFrame(1024)
	if err := BuildPublish(f, []byte("a/b"), []byte("hi"), 0, false, 9); err != nil {
		t.Fatal(err)
	}
	exp := []byte{0x30, 0x07, 0x00, 0x03, 'a', '/', 'b', 'h', 'i'}
	if !bytes.Equal(f.Bytes(), exp) {
		t.Fatalf("qos0 publish must not carry packet id: % X", f.Bytes())
	}

	if err := BuildPublish(f, []byte("a/b"), []byte("hi"), 2, true, 0x1234); err != nil {
		t.Fatal(err)
	}
	pp, ok := readPacket(t, f).(*packets.PublishPacket)
	if !ok {
		t.Fatal("not a PUBLISH")
	}
	if pp.Qos != 2 || !pp.Retain || pp.TopicName != "a/b" || pp.MessageID != 0x1234 || string(pp.Payload) != "hi" {
		t.Fatal("bad publish", pp)
	}
}

func TestBuildSubscribeUnsubscribe(t *testing.T) {
	t.Parallel()

	f := NewFrame(1024)
	if err := BuildSubscribe(f, 2, []byte("sensors/#"), 1); err != nil {
		t.Fatal(err)
	}
	if f.Bytes()[0] != 0x82 {
		t.Fatalf("subscribe header %X", f.Bytes()[0])
	}
	sp, ok := readPacket(t, f).(*packets.SubscribePacket)
	if !ok {
		t.Fatal("not a SUBSCRIBE")
	}
	if sp.MessageID != 2 || len(sp.Topics) != 1 || sp.Topics[0] != "sensors/#" || sp.Qoss[0] != 1 {
		t.Fatal("bad subscribe", sp)
	}

	if err := BuildUnsubscribe(f, 3, []byte("sensors/#")); err != nil {
		t.Fatal(err)
	}
	if f.Bytes()[0] != 0xA2 {
		t.Fatalf("unsubscribe header %X", f.Bytes()[0])
	}
	up, ok := readPacket(t, f).(*packets.UnsubscribePacket)
	if !ok {
		t.Fatal("not an UNSUBSCRIBE")
	}
	if up.MessageID != 3 || len(up.Topics) != 1 || up.Topics[0] != "sensors/#" {
		t.Fatal("bad unsubscribe", up)
	}
}

func TestBuildFixedPackets(t *testing.T) {
	t.Parallel()

	f := NewFrame(1024)
	if err := BuildPingreq(f); err != nil || !bytes.Equal(f.Bytes(), []byte{0xC0, 0x00}) {
		t.Fatal(f.Bytes(), err)
	}
	if err := BuildDisconnect(f); err != nil || !bytes.Equal(f.Bytes(), []byte{0xE0, 0x00}) {
		t.Fatal(f.Bytes(), err)
	}
}

func TestFrameFull(t *testing.T) {
	t.Parallel()

	f := NewFrame(16)
	if err := BuildPingreq(f); err != nil {
		t.Fatal(err)
	}

	// 1 + 1 + 2 + 3 + 9 = 16 fits exactly
	if err := BuildPublish(f, []byte("a/b"), make([]byte, 9), 0, false, 0); err != nil {
		t.Fatal(err)
	}
	if f.Len() != 16 {
		t.Fatal(f.Len())
	}

	if err := BuildPublish(f, []byte("a/b"), make([]byte, 10), 0, false, 0); err != ErrFrameFull {
		t.Fatal("expected frame full, got", err)
	}
	if f.Len() != 16 || f.Bytes()[0] != PUBLISH {
		t.Fatal("failed build must leave frame untouched")
	}

	if err := BuildConnect(f, &ConnectOptions{ClientID: []byte("abcdefghij")}); err != ErrFrameFull {
		t.Fatal("expected frame full, got", err)
	}
}

func TestParsePublish(t *testing.T) {
	t.Parallel()

	var b bytes.Buffer
	pp := packets.NewControlPacket(packets.Publish).(*packets.PublishPacket)
	pp.Qos, pp.TopicName, pp.MessageID, pp.Payload = 1, "x/y", 77, []byte("payload")
	if err := pp.Write(&b); err != nil {
		t.Fatal(err)
	}

	m, err := ParsePublish(b.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if string(m.Topic) != "x/y" || string(m.Payload) != "payload" || m.QoS != 1 || m.PId != 77 {
		t.Fatal("bad parse", m)
	}

	// topic length points past the end
	if _, err := ParsePublish([]byte{0x30, 0x03, 0x00, 0x09, 'a'}); err == nil {
		t.Fatal("expected error")
	}
	// QoS1 without room for the packet id
	if _, err := ParsePublish([]byte{0x32, 0x03, 0x00, 0x01, 'a'}); err == nil {
		t.Fatal("expected error")
	}
	if _, err := ParsePublish([]byte{0x36, 0x03, 0x00, 0x01, 'a'}); err != errPublishQoS {
		t.Fatal("expected QoS3 error, got", err)
	}
}
