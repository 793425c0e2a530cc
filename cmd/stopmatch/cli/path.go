// Copyright 2025 the original author or authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

// -- input path Value
type pathValue struct {
	value    *string
	typename string
}

// NewPathValue creates a pflag Value for the path of an existing, regular
// input file.
func NewPathValue(def string, p *string, typename string) pflag.Value {
	v := &pathValue{
		value:    p,
		typename: typename,
	}
	*v.value = def

	return v
}

func (v *pathValue) Set(val string) error {
	fi, err := os.Stat(val)
	if err != nil {
		return err
	}

	if fi.IsDir() {
		return fmt.Errorf("%s is a directory", val)
	}

	*v.value = val

	return nil
}

func (v *pathValue) Type() string {
	return v.typename
}

func (v *pathValue) String() string {
	if v.value == nil {
		return ""
	}

	return *v.value
}
