// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"time"

	log "github.com/sirupsen/logrus"
)

// profileEvery writes heap and CPU profiles to outdir each interval
// until ctx is done. Profiles are replaced atomically, so a reader
// never sees a partial file.
func profileEvery(ctx context.Context, outdir string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := writeMemProfile(outdir); err != nil {
				log.WithError(err).Warn("heap profile failed")
			}
			if err := writeCPUProfile(outdir, time.Second); err != nil {
				log.WithError(err).Warn("cpu profile failed")
			}
		}
	}
}

func writeCPUProfile(outdir string, duration time.Duration) error {
	return writeProfile(filepath.Join(outdir, "cpu.prof"), func(f *os.File) error {
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		time.Sleep(duration)
		pprof.StopCPUProfile()
		return nil
	})
}

func writeMemProfile(outdir string) error {
	return writeProfile(filepath.Join(outdir, "mem.prof"), func(f *os.File) error {
		runtime.GC()
		return pprof.WriteHeapProfile(f)
	})
}

func writeProfile(fnm string, fill func(*os.File) error) error {
	f, err := os.OpenFile(fnm+"~", os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0666)
	if err != nil {
		return err
	}
	defer f.Close()
	if err = fill(f); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(fnm+"~", fnm)
}
