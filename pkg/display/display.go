// Package display redraws a live status block on a terminal.
package display

import (
	"bytes"
	"io"
	"sync"
	"time"

	"github.com/gosuri/uilive"
)

type Displayer interface {
	// Display writes the status block and reports whether the display
	// should keep running.
	Display(io.Writer) bool
}

type Display struct {
	live     *uilive.Writer
	interval time.Duration
	updater  Displayer
	buffer   *bytes.Buffer
	mu       sync.Mutex
	once     sync.Once
	close    chan struct{}
	done     sync.WaitGroup
}

func New(updater Displayer, interval time.Duration, w io.Writer) *Display {
	live := uilive.New()
	live.Out = w
	return &Display{
		live:     live,
		interval: interval,
		updater:  updater,
		buffer:   bytes.NewBuffer(nil),
		close:    make(chan struct{}),
	}
}

func (d *Display) update() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buffer.Reset()
	cont := d.updater.Display(d.buffer)
	// Ignore any errors.
	_, _ = io.Copy(d.live, d.buffer)
	_ = d.live.Flush()
	return cont
}

// Start redraws the status block every interval in its own goroutine
// until Close is called or the Displayer asks to stop.
func (d *Display) Start() {
	d.done.Add(1)
	go d.run()
}

func (d *Display) run() {
	defer d.done.Done()
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for d.update() {
		select {
		case <-d.close:
			return
		case <-ticker.C:
		}
	}
}

// Wait waits for the goroutine started by Start to end.
func (d *Display) Wait() {
	d.done.Wait()
}

// Close stops the redraws and draws the final status block.
func (d *Display) Close() {
	d.once.Do(func() { close(d.close) })
	d.done.Wait()
	d.update()
}
