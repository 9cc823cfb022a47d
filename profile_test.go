// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"context"
	"os"
	"time"

	"gopkg.in/check.v1"
)

type profileSuite struct{}

var _ = check.Suite(&profileSuite{})

func (s *profileSuite) TestWriteProfiles(c *check.C) {
	dir := c.MkDir()
	c.Assert(writeMemProfile(dir), check.IsNil)
	c.Assert(writeCPUProfile(dir, 10*time.Millisecond), check.IsNil)
	for _, fnm := range []string{"mem.prof", "cpu.prof"} {
		fi, err := os.Stat(dir + "/" + fnm)
		c.Assert(err, check.IsNil)
		c.Check(fi.Size() > 0, check.Equals, true, check.Commentf("%s", fnm))
		_, err = os.Stat(dir + "/" + fnm + "~")
		c.Check(os.IsNotExist(err), check.Equals, true)
	}
}

func (s *profileSuite) TestProfileEveryStops(c *check.C) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		profileEvery(ctx, c.MkDir(), time.Hour)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		c.Fatal("profileEvery did not return after cancel")
	}
}

func (s *profileSuite) TestMissingDir(c *check.C) {
	c.Check(writeMemProfile(c.MkDir()+"/nonexistent"), check.NotNil)
}
