// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package listener

import (
	"time"

	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	"go.uber.org/mock/gomock"
	gc "gopkg.in/check.v1"

	"github.com/juju/datatree/core/path"
	coretesting "github.com/juju/datatree/testing"
)

type workerSuite struct {
	testing.IsolationSuite

	store        *MockStore
	registration *MockRegistration
}

var _ = gc.Suite(&workerSuite{})

func (s *workerSuite) setupMocks(c *gc.C) *gomock.Controller {
	ctrl := gomock.NewController(c)
	s.store = NewMockStore(ctrl)
	s.registration = NewMockRegistration(ctrl)
	return ctrl
}

func (s *workerSuite) newShell(c *gc.C) *Shell[*batchContext] {
	shell, err := New(Config[*batchContext]{
		Handler: &recordingHandler{},
		Logger:  coretesting.NoopLogger{},
	})
	c.Assert(err, jc.ErrorIsNil)
	return shell
}

func (s *workerSuite) config(listener Listener) WorkerConfig {
	return WorkerConfig{
		Store:    s.store,
		Listener: listener,
		Root:     vtnsRoot,
		Logger:   coretesting.NoopLogger{},
	}
}

func (s *workerSuite) TestValidate(c *gc.C) {
	defer s.setupMocks(c).Finish()
	shell := s.newShell(c)

	cfg := s.config(shell)
	cfg.Store = nil
	c.Check(errors.Is(cfg.Validate(), errors.NotValid), jc.IsTrue)

	cfg = s.config(nil)
	c.Check(errors.Is(cfg.Validate(), errors.NotValid), jc.IsTrue)

	cfg = s.config(shell)
	cfg.Root = path.New()
	c.Check(errors.Is(cfg.Validate(), errors.NotValid), jc.IsTrue)

	cfg = s.config(shell)
	cfg.Logger = nil
	c.Check(errors.Is(cfg.Validate(), errors.NotValid), jc.IsTrue)
}

func (s *workerSuite) TestRegistersUntilKilled(c *gc.C) {
	defer s.setupMocks(c).Finish()
	shell := s.newShell(c)

	registered := make(chan struct{})
	s.store.EXPECT().RegisterChangeListener(vtnsRoot, shell).DoAndReturn(
		func(path.Path, BatchListener) (Registration, error) {
			close(registered)
			return s.registration, nil
		},
	)
	s.registration.EXPECT().Close().Return(nil)

	w, err := NewWorker(s.config(shell))
	c.Assert(err, jc.ErrorIsNil)

	select {
	case <-registered:
	case <-time.After(coretesting.LongWait):
		c.Fatalf("timed out waiting for registration")
	}

	w.Kill()
	c.Assert(w.Wait(), jc.ErrorIsNil)
}

func (s *workerSuite) TestRegistrationFailureKillsWorker(c *gc.C) {
	defer s.setupMocks(c).Finish()
	shell := s.newShell(c)

	s.store.EXPECT().RegisterChangeListener(vtnsRoot, shell).Return(nil, errors.New("refused"))

	w, err := NewWorker(s.config(shell))
	c.Assert(err, jc.ErrorIsNil)

	err = w.Wait()
	c.Check(err, gc.ErrorMatches, `registering change listener for /vtns: refused`)

	// The shell is closed with the worker.
	_, err = shell.Register(s.store, vtnsRoot, false)
	c.Check(err, gc.ErrorMatches, `registering /vtns on a closed listener`)
}
