// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package logx_test

import (
	"testing"

	"github.com/gviegas/rgraph/internal/logx"
)

type recordSink struct{ lines []string }

func (r *recordSink) Infof(format string, args ...any)  { r.lines = append(r.lines, format) }
func (r *recordSink) Warnf(format string, args ...any)  { r.lines = append(r.lines, format) }
func (r *recordSink) Errorf(format string, args ...any) { r.lines = append(r.lines, format) }

func TestSetSinkOverridesDefault(t *testing.T) {
	rs := &recordSink{}
	logx.SetSink(rs)
	defer logx.Shutdown()

	logx.Get().Infof("hello %d", 1)
	if len(rs.lines) != 1 {
		t.Fatalf("Get().Infof: have %d lines, want 1", len(rs.lines))
	}
}
