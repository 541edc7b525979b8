package wire

// Message is the chat payload carried by send_message packets.
//
// Grounded on the teacher's protocol.go ControlMsg — same role (the wire
// envelope for a chat line) re-expressed as the spec's fixed binary layout
// instead of a JSON struct.
type Message struct {
	Sender    string
	Content   string
	Recipient string
	SenderID  int32
}

// EncodeMessage writes m in declaration order: sender, content, recipient,
// sender_id.
func EncodeMessage(w *Writer, m Message) {
	w.String(m.Sender)
	w.String(m.Content)
	w.String(m.Recipient)
	w.I32(m.SenderID)
}

// DecodeMessage reads a Message in declaration order.
func DecodeMessage(r *Reader) (Message, error) {
	var m Message
	var err error
	if m.Sender, err = r.String(); err != nil {
		return m, err
	}
	if m.Content, err = r.String(); err != nil {
		return m, err
	}
	if m.Recipient, err = r.String(); err != nil {
		return m, err
	}
	v, err := r.I32()
	if err != nil {
		return m, err
	}
	m.SenderID = v
	return m, nil
}

// ChannelInfo is the chat channel summary broadcast on join/leave and
// during the login startup burst.
type ChannelInfo struct {
	Name      string
	Topic     string
	UserCount int32
}

// EncodeChannelInfo writes c in declaration order: name, topic, user_count.
func EncodeChannelInfo(w *Writer, c ChannelInfo) {
	w.String(c.Name)
	w.String(c.Topic)
	w.I32(c.UserCount)
}

// DecodeChannelInfo reads a ChannelInfo in declaration order.
func DecodeChannelInfo(r *Reader) (ChannelInfo, error) {
	var c ChannelInfo
	var err error
	if c.Name, err = r.String(); err != nil {
		return c, err
	}
	if c.Topic, err = r.String(); err != nil {
		return c, err
	}
	v, err := r.I32()
	if err != nil {
		return c, err
	}
	c.UserCount = v
	return c, nil
}
