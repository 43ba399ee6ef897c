package zsock

// Frame holds one message part outside a message. The picture codec sends a
// frame's bytes as one part ('f') and wraps a received part in a new frame.
// A frame owns its data; construction copies and inspection does not.
type Frame struct {
	data []byte
}

// NewFrame creates a frame holding a copy of data.
func NewFrame(data []byte) *Frame {
	return &Frame{data: append([]byte(nil), data...)}
}

// Data returns the frame content.
func (f *Frame) Data() []byte {
	return f.data
}

// Size returns the content length in bytes.
func (f *Frame) Size() int {
	return len(f.data)
}

func (f *Frame) String() string {
	return string(f.data)
}

// Chunk is a byte blob like Frame but held by callers that think of their
// data as a buffer rather than a message part; the two are wire-identical
// in the picture codec ('c').
type Chunk struct {
	data []byte
}

// NewChunk creates a chunk holding a copy of data.
func NewChunk(data []byte) *Chunk {
	return &Chunk{data: append([]byte(nil), data...)}
}

// Data returns the chunk content.
func (c *Chunk) Data() []byte {
	return c.data
}

// Size returns the content length in bytes.
func (c *Chunk) Size() int {
	return len(c.data)
}

func (c *Chunk) String() string {
	return string(c.data)
}
