package runner

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"snow/internal/snowerr"
)

// lineFunc applies one output line to the model. It is called with the model's lock held.
type lineFunc func(p *Progress, tracker *errorTracker, line string) error

type trackOptions struct {
	label     string
	total     int
	grace     time.Duration
	useStdout bool // read stdout instead of stderr
	apply     lineFunc
}

func applyBuildLine(p *Progress, tracker *errorTracker, line string) error {
	switch Classify(line) {
	case OutcomeError:
		return tracker.observe(line)
	case OutcomeDerivations:
		p.AddDerivations(line)
	case OutcomeFetched:
		return p.AddFetched(line)
	case OutcomeTick:
		p.Tick()
	case OutcomeTask:
		p.AddTask()
	}
	return nil
}

func applyImportLine(p *Progress, _ *errorTracker, line string) error {
	if ClassifyImport(line) == OutcomeTick {
		p.Tick()
	}
	return nil
}

// track runs c while a producer goroutine classifies the inspected stream and a ticker
// goroutine redraws the bar until the process exits. The producer's result is returned
// once both goroutines are done, together with the finished model.
//
// When the producer fails early the child is not killed: it keeps running to its own
// completion, its remaining output is discarded, and track still returns only after it
// exited.
func (r *Runner) track(c Command, opts trackOptions) (*Progress, error) {
	model, err := NewProgress(opts.label, opts.total, r.stderr)
	if err != nil {
		return nil, err
	}

	cmd := r.prepare(c)
	pr, pw, err := os.Pipe()
	if err != nil {
		_ = model.Finish(false)
		return model, snowerr.IO(err)
	}
	if opts.useStdout {
		cmd.Stdout = pw
	} else {
		cmd.Stderr = pw
	}
	cmd.Stdin = r.stdin
	if err := start(cmd); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		_ = model.Finish(false)
		return model, err
	}
	// The child holds its own copy of the write end; closing ours lets the reader see EOF.
	_ = pw.Close()

	exited := make(chan bool, 1)
	go func() {
		exited <- cmd.Wait() == nil
	}()

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		r.tick(model, &mu, exited, opts.grace)
	}()
	go func() {
		defer wg.Done()
		result = produce(pr, model, &mu, opts.apply)
	}()
	wg.Wait()
	return model, result
}

// tick redraws the model every interval until the process exits, then finishes it with
// the exit status. A rendering failure means the terminal is broken and panics.
func (r *Runner) tick(p *Progress, mu *sync.Mutex, exited <-chan bool, grace time.Duration) {
	var success bool
	select {
	case success = <-exited:
		finish(p, mu, success)
		return
	case <-time.After(grace):
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		mu.Lock()
		err := p.Render()
		mu.Unlock()
		if err != nil {
			panic(fmt.Sprintf("rendering progress: %v", err))
		}
		select {
		case success = <-exited:
			finish(p, mu, success)
			return
		case <-ticker.C:
		}
	}
}

func finish(p *Progress, mu *sync.Mutex, success bool) {
	mu.Lock()
	defer mu.Unlock()
	if err := p.Finish(success); err != nil {
		panic(fmt.Sprintf("finishing progress: %v", err))
	}
}

// produce classifies every line of r into p. It returns the first failure without
// waiting for the rest of the output, which is then drained in the background.
func produce(r io.ReadCloser, p *Progress, mu *sync.Mutex, apply lineFunc) error {
	var tracker errorTracker
	err := eachLine(r, func(raw []byte) error {
		line, err := decodeText(raw)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		return apply(p, &tracker, line)
	})
	if err != nil {
		go drain(r)
		return err
	}
	drain(r)
	return nil
}

// drain discards the rest of r so the child never blocks on a full pipe.
func drain(r io.ReadCloser) {
	_, _ = io.Copy(io.Discard, r)
	_ = r.Close()
}
