package zsock

import (
	"fmt"
	"strconv"

	"github.com/go-zeromq/zmq4"
	"github.com/pkg/errors"
)

// ErrShortMessage is returned by Recv when the received message has fewer
// frames than the picture demands.
var ErrShortMessage = errors.New("message has fewer frames than picture")

// Send sends a 'picture' message to the socket, actor or raw transport
// socket. The picture is a string that defines the type of each frame,
// which makes it easy to send a complex multi-frame message in one call.
// The picture may contain any of these characters, each matching one
// argument:
//
//	i = int
//	s = string
//	b = []byte
//	c = *Chunk
//	f = *Frame
//
// Note that b, c and f are encoded the same way; the choice is offered as a
// convenience to the sender, which may or may not already hold the data in
// a chunk or frame. Send copies argument data and never takes ownership.
//
// A picture character without a matching argument, a surplus argument, or
// an argument of the wrong type is a programmer error and panics. Transport
// failures are returned as errors.
func Send(sock any, picture string, args ...any) error {
	frames := encodePicture(picture, args)

	s := Resolve(sock)
	if s == nil {
		return errors.Wrap(ErrNotASocket, "send")
	}
	if len(frames) == 0 {
		return nil
	}
	if len(frames) == 1 {
		return errors.Wrap(s.Send(zmq4.NewMsg(frames[0])), "send")
	}
	return errors.Wrap(s.SendMulti(zmq4.NewMsgFrom(frames...)), "send")
}

// Recv receives a 'picture' message from the socket, actor or raw transport
// socket. See Send for the format and meaning of the picture. The frames
// are decoded into the supplied output pointers, one per picture character:
//
//	i = *int
//	s = *string
//	b = *[]byte  (newly allocated copy)
//	c = **Chunk  (newly constructed, caller-owned)
//	f = **Frame  (newly constructed, caller-owned)
//
// If the receive fails, or the message decodes short or malformed, Recv
// returns an error and no output pointer is written; outputs are assigned
// only once the whole picture has decoded. Mismatched output pointer types
// or arity are programmer errors and panic.
func Recv(sock any, picture string, args ...any) error {
	s := Resolve(sock)
	if s == nil {
		return errors.Wrap(ErrNotASocket, "recv")
	}
	msg, err := s.Recv()
	if err != nil {
		return errors.Wrap(err, "recv")
	}
	return decodePicture(msg.Frames, picture, args)
}

func encodePicture(picture string, args []any) [][]byte {
	frames := make([][]byte, 0, len(picture))
	idx := 0

	for i := 0; i < len(picture); i++ {
		if idx >= len(args) {
			panic(fmt.Sprintf("zsock: picture %q needs more than %d arguments", picture, len(args)))
		}
		arg := args[idx]
		idx++

		switch picture[i] {
		case 'i':
			v, ok := arg.(int)
			if !ok {
				panic(fmt.Sprintf("zsock: picture 'i' wants int, got %T", arg))
			}
			frames = append(frames, []byte(strconv.Itoa(v)))
		case 's':
			v, ok := arg.(string)
			if !ok {
				panic(fmt.Sprintf("zsock: picture 's' wants string, got %T", arg))
			}
			frames = append(frames, []byte(v))
		case 'b':
			v, ok := arg.([]byte)
			if !ok {
				panic(fmt.Sprintf("zsock: picture 'b' wants []byte, got %T", arg))
			}
			frames = append(frames, append([]byte(nil), v...))
		case 'c':
			v, ok := arg.(*Chunk)
			if !ok {
				panic(fmt.Sprintf("zsock: picture 'c' wants *Chunk, got %T", arg))
			}
			frames = append(frames, append([]byte(nil), v.Data()...))
		case 'f':
			v, ok := arg.(*Frame)
			if !ok {
				panic(fmt.Sprintf("zsock: picture 'f' wants *Frame, got %T", arg))
			}
			frames = append(frames, append([]byte(nil), v.Data()...))
		default:
			panic(fmt.Sprintf("zsock: invalid picture element '%c'", picture[i]))
		}
	}

	if idx != len(args) {
		panic(fmt.Sprintf("zsock: picture %q given %d surplus arguments", picture, len(args)-idx))
	}
	return frames
}

func decodePicture(frames [][]byte, picture string, args []any) error {
	// Assignments are deferred so a mid-picture failure leaves every
	// output untouched.
	assign := make([]func(), 0, len(picture))
	fi := 0
	ai := 0

	for i := 0; i < len(picture); i++ {
		if ai >= len(args) {
			panic(fmt.Sprintf("zsock: picture %q needs more than %d arguments", picture, len(args)))
		}
		arg := args[ai]
		ai++

		if fi >= len(frames) {
			return errors.Wrapf(ErrShortMessage, "picture %q wants %d frames, message has %d",
				picture, len(picture), len(frames))
		}
		frame := frames[fi]
		fi++

		switch picture[i] {
		case 'i':
			out, ok := arg.(*int)
			if !ok {
				panic(fmt.Sprintf("zsock: picture 'i' wants *int, got %T", arg))
			}
			v, err := strconv.Atoi(string(frame))
			if err != nil {
				return errors.Wrapf(err, "picture 'i': malformed integer frame")
			}
			assign = append(assign, func() { *out = v })
		case 's':
			out, ok := arg.(*string)
			if !ok {
				panic(fmt.Sprintf("zsock: picture 's' wants *string, got %T", arg))
			}
			v := string(frame)
			assign = append(assign, func() { *out = v })
		case 'b':
			out, ok := arg.(*[]byte)
			if !ok {
				panic(fmt.Sprintf("zsock: picture 'b' wants *[]byte, got %T", arg))
			}
			v := append([]byte(nil), frame...)
			assign = append(assign, func() { *out = v })
		case 'c':
			out, ok := arg.(**Chunk)
			if !ok {
				panic(fmt.Sprintf("zsock: picture 'c' wants **Chunk, got %T", arg))
			}
			v := NewChunk(frame)
			assign = append(assign, func() { *out = v })
		case 'f':
			out, ok := arg.(**Frame)
			if !ok {
				panic(fmt.Sprintf("zsock: picture 'f' wants **Frame, got %T", arg))
			}
			v := NewFrame(frame)
			assign = append(assign, func() { *out = v })
		default:
			panic(fmt.Sprintf("zsock: invalid picture element '%c'", picture[i]))
		}
	}

	if ai != len(args) {
		panic(fmt.Sprintf("zsock: picture %q given %d surplus arguments", picture, len(args)-ai))
	}

	for _, fn := range assign {
		fn()
	}
	return nil
}
