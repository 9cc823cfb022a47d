// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// throttle limits the number of goroutines working on columns at
// once and remembers the first error reported.
type throttle struct {
	Max       int
	wg        sync.WaitGroup
	ch        chan bool
	err       atomic.Value
	setupOnce sync.Once
	errorOnce sync.Once
}

func newThrottle(max int) *throttle {
	if max < 1 {
		max = runtime.NumCPU()
	}
	return &throttle{Max: max}
}

func (t *throttle) Acquire() {
	t.setupOnce.Do(func() { t.ch = make(chan bool, t.Max) })
	t.wg.Add(1)
	t.ch <- true
}

func (t *throttle) Release() {
	t.wg.Done()
	<-t.ch
}

func (t *throttle) Report(err error) {
	if err != nil {
		t.errorOnce.Do(func() { t.err.Store(err) })
	}
}

func (t *throttle) Err() error {
	err, _ := t.err.Load().(error)
	return err
}

// Go runs fn in a new goroutine once a slot is available, unless an
// error has already been reported.
func (t *throttle) Go(fn func() error) {
	t.Acquire()
	if t.Err() != nil {
		t.Release()
		return
	}
	go func() {
		defer t.Release()
		t.Report(fn())
	}()
}

func (t *throttle) Wait() error {
	t.wg.Wait()
	return t.Err()
}
