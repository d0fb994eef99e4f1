package cli

import (
	"context"
	"io"

	"github.com/matzehuels/semiframes/pkg/sink"
)

// sinkOpts selects where the families of one size go.
type sinkOpts struct {
	output  string // file pattern; "" or "-" writes to console
	console io.Writer
	quiet   bool // drop text output entirely
	redis   sink.RedisOptions
	mongo   sink.MongoOptions
}

// openSinks builds the sink for size n: a text file or the console plus
// the optional Redis and MongoDB stores, each instrumented under its own
// name. It returns the destinations for display.
func openSinks(ctx context.Context, n int, mode, runID string, o sinkOpts) (sink.Sink, []string, error) {
	var (
		sinks []sink.Sink
		dests []string
	)
	closeAll := func() {
		for _, s := range sinks {
			_ = s.Close()
		}
	}

	switch {
	case o.quiet:
	case o.output == "" || o.output == "-":
		sinks = append(sinks, sink.Instrument("console", sink.NewText(o.console)))
	default:
		f, err := sink.CreateFile(o.output, n)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, sink.Instrument("file", f))
		dests = append(dests, sink.PatternPath(o.output, n))
	}

	if o.redis.URL != "" {
		ro := o.redis
		ro.Mode, ro.RunID = mode, runID
		r, err := sink.NewRedis(ctx, ro, n)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		sinks = append(sinks, sink.Instrument("redis", r))
		dests = append(dests, "redis "+r.Key())
	}

	if o.mongo.URI != "" {
		mo := o.mongo
		mo.Mode, mo.RunID = mode, runID
		m, err := sink.NewMongo(ctx, mo)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		sinks = append(sinks, sink.Instrument("mongo", m))
		dests = append(dests, "mongo "+m.Namespace())
	}

	if len(sinks) == 0 {
		return sink.Discard(), nil, nil
	}
	return sink.Tee(sinks...), dests, nil
}
