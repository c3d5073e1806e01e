package pipeline

import (
	"context"
	"fmt"

	"github.com/wkalt/prdemo/analyzer"
	"github.com/wkalt/prdemo/codec"
	"github.com/wkalt/prdemo/demo"
	"github.com/wkalt/prdemo/messages"
	"github.com/wkalt/prdemo/runner"
	"github.com/wkalt/prdemo/util/log"
)

/*
Package pipeline provides the standard analyzers for reading a demo:

	opener     path -> new_file (*File), then end_of_file (path)
	parser     new_file -> message (demo.Frame), one per frame
	dispatcher message -> <type name> (Message), e.g. "kill"
	decoder    <type name> -> record (Decoded)

The opener is the start of every graph. Downstream analyzers are added with
Decoder, KillFeed, or Handle and listen to the dispatcher's per-type events.
A Pipeline holds per-file state, so build one per concurrent run.
*/

////////////////////////////////////////////////////////////////////////////////

// Event names emitted by the standard analyzers.
const (
	EventNewFile   = "new_file"
	EventEndOfFile = "end_of_file"
	EventMessage   = "message"
	EventRecord    = "record"
	EventKill      = "kill"
)

// File is a decompressed demo.
type File struct {
	Path string
	Data []byte
}

// Message is a frame tagged with its message type.
type Message struct {
	Type  messages.Type
	Frame demo.Frame
}

// Decoded is a decoded message payload. Value is a codec.Record, or a
// []codec.Record for list messages.
type Decoded struct {
	Type   messages.Type
	Offset int
	Value  any
}

// Pipeline is a set of analyzers over one demo source.
type Pipeline struct {
	Opener     *analyzer.Analyzer
	Parser     *analyzer.Analyzer
	Dispatcher *analyzer.Analyzer

	open      demo.OpenFunc
	catalogue messages.Catalogue
	registry  *analyzer.Registry
}

// New builds the opener, parser and dispatcher.
func New(open demo.OpenFunc, catalogue messages.Catalogue) (*Pipeline, error) {
	p := &Pipeline{
		open:      open,
		catalogue: catalogue,
		registry:  analyzer.NewRegistry(),
	}
	var err error
	p.Opener, err = p.registry.Handle("opener", p.openFile,
		analyzer.Emits(EventNewFile, EventEndOfFile),
	)
	if err != nil {
		return nil, err
	}
	p.Parser, err = p.registry.Handle("parser", parseFrames,
		analyzer.Emits(EventMessage),
		analyzer.Listens(p.Opener, EventNewFile),
	)
	if err != nil {
		return nil, err
	}
	typeNames := []string{}
	for _, t := range messages.Types() {
		typeNames = append(typeNames, t.String())
	}
	p.Dispatcher, err = p.registry.Handle("dispatcher", dispatch,
		analyzer.Emits(typeNames...),
		analyzer.Listens(p.Parser, EventMessage),
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Handle registers a custom analyzer alongside the standard ones.
func (p *Pipeline) Handle(name string, fn analyzer.Func, opts ...analyzer.Option) (*analyzer.Analyzer, error) {
	a, err := p.registry.Handle(name, fn, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", name, err)
	}
	return a, nil
}

// Lookup returns a registered analyzer by name.
func (p *Pipeline) Lookup(name string) (*analyzer.Analyzer, bool) {
	return p.registry.Lookup(name)
}

// Analyzers returns every analyzer of the pipeline in registration order.
func (p *Pipeline) Analyzers() []*analyzer.Analyzer {
	return p.registry.Analyzers()
}

// Event resolves an event of a registered analyzer by name.
func (p *Pipeline) Event(owner, name string) (analyzer.Event, error) {
	ev, err := p.registry.Event(owner, name)
	if err != nil {
		return ev, fmt.Errorf("failed to resolve %s@%s: %w", name, owner, err)
	}
	return ev, nil
}

// TypeEvent returns the dispatcher event for a message type.
func (p *Pipeline) TypeEvent(t messages.Type) analyzer.Event {
	return p.Dispatcher.Event(t.String())
}

// Runner builds a runner from the opener to ends.
func (p *Pipeline) Runner(ends ...analyzer.Event) (*runner.Runner, error) {
	r, err := runner.New(p.Opener, ends)
	if err != nil {
		return nil, fmt.Errorf("failed to build runner: %w", err)
	}
	return r, nil
}

func (p *Pipeline) openFile(ctx context.Context, data any, _ analyzer.Event) (analyzer.Result, error) {
	path, ok := data.(string)
	if !ok {
		return analyzer.None(), unexpected(data)
	}
	buf, err := p.open(path)
	if err != nil {
		return analyzer.None(), err
	}
	log.Debugw(ctx, "opened demo", "path", path, "size", len(buf))
	file := &File{Path: path, Data: buf}
	return analyzer.Many(func(yield func(analyzer.Emission, error) bool) {
		if !yield(analyzer.Emission{Value: file, Event: EventNewFile}, nil) {
			return
		}
		yield(analyzer.Emission{Value: path, Event: EventEndOfFile}, nil)
	}), nil
}

func parseFrames(_ context.Context, data any, _ analyzer.Event) (analyzer.Result, error) {
	file, ok := data.(*File)
	if !ok {
		return analyzer.None(), unexpected(data)
	}
	return analyzer.Many(func(yield func(analyzer.Emission, error) bool) {
		for frame := range demo.Frames(file.Data) {
			if !yield(analyzer.Emission{Value: frame, Event: EventMessage}, nil) {
				return
			}
		}
	}), nil
}

func dispatch(_ context.Context, data any, _ analyzer.Event) (analyzer.Result, error) {
	frame, ok := data.(demo.Frame)
	if !ok {
		return analyzer.None(), unexpected(data)
	}
	code, err := frame.TypeCode()
	if err != nil {
		return analyzer.None(), err
	}
	t := messages.Type(code)
	if !t.Known() {
		return analyzer.None(), fmt.Errorf("frame at %d: %w", frame.Offset, messages.UnknownTypeError{Code: code})
	}
	return analyzer.One(Message{Type: t, Frame: frame}, t.String()), nil
}

// Decode decodes the payload of a message with the pipeline's catalogue.
func (p *Pipeline) Decode(msg Message) (Decoded, error) {
	field, err := p.catalogue.SchemaFor(uint8(msg.Type))
	if err != nil {
		return Decoded{}, fmt.Errorf("frame at %d: %w", msg.Frame.Offset, err)
	}
	payload, err := msg.Frame.Payload()
	if err != nil {
		return Decoded{}, err
	}
	value, err := codec.Unmarshal(field, payload)
	if err != nil {
		return Decoded{}, fmt.Errorf("failed to decode %s at %d: %w", msg.Type, msg.Frame.Offset, err)
	}
	return Decoded{Type: msg.Type, Offset: msg.Frame.Offset, Value: value}, nil
}

// Decoder registers an analyzer that decodes the given message types and
// emits each as a record event. Every type must have a schema in the
// catalogue.
func (p *Pipeline) Decoder(types ...messages.Type) (*analyzer.Analyzer, error) {
	if len(types) == 0 {
		return nil, fmt.Errorf("decoder requires at least one message type")
	}
	opts := []analyzer.Option{analyzer.Emits(EventRecord)}
	for _, t := range types {
		if _, err := p.catalogue.SchemaFor(uint8(t)); err != nil {
			return nil, fmt.Errorf("cannot decode %s: %w", t, err)
		}
		opts = append(opts, analyzer.Listens(p.Dispatcher, t.String()))
	}
	return p.Handle("decoder", func(_ context.Context, data any, _ analyzer.Event) (analyzer.Result, error) {
		msg, ok := data.(Message)
		if !ok {
			return analyzer.None(), unexpected(data)
		}
		decoded, err := p.Decode(msg)
		if err != nil {
			return analyzer.None(), err
		}
		return analyzer.One(decoded, EventRecord), nil
	}, opts...)
}

func unexpected(data any) error {
	return fmt.Errorf("unexpected input %T", data)
}
