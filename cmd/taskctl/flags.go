package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/taskdeck/taskdeck/internal/model"
)

// filterValue is a pflag.Value restricted to the list status filters.
type filterValue model.StatusFilter

var _ pflag.Value = (*filterValue)(nil)

func (f *filterValue) String() string { return string(*f) }
func (f *filterValue) Type() string   { return "status" }

func (f *filterValue) Set(s string) error {
	v := model.StatusFilter(strings.ToLower(strings.TrimSpace(s)))
	if !v.IsValid() {
		return fmt.Errorf("must be one of all, pending, completed")
	}
	*f = filterValue(v)
	return nil
}

// statusValue is a pflag.Value for a task status; empty means unset.
type statusValue model.TaskStatus

var _ pflag.Value = (*statusValue)(nil)

func (s *statusValue) String() string { return string(*s) }
func (s *statusValue) Type() string   { return "status" }

func (s *statusValue) Set(v string) error {
	st := model.TaskStatus(strings.ToLower(strings.TrimSpace(v)))
	if !st.IsValid() {
		return fmt.Errorf("must be pending or completed")
	}
	*s = statusValue(st)
	return nil
}

// changedString returns a pointer to the flag value only when the flag was
// given on the command line.
func changedString(fs *pflag.FlagSet, name string, value string) *string {
	if !fs.Changed(name) {
		return nil
	}
	v := value
	return &v
}
