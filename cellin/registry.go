// Copyright 2016 The Cellsim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cellin

import (
	"github.com/cpmech/gosl/chk"

	"cellsim/model"
	"cellsim/model/lrdemo"
)

// templates maps the Model field of a .cell file to a constructor for the
// corresponding pre-generated Template (spec §1: model generation itself
// is out of scope, so a host registers the templates it has available).
var templates = map[string]func() model.Template{
	"lrdemo": func() model.Template { return lrdemo.New() },
}

// Register adds or replaces a named Template constructor, letting a host
// plug in additional pre-generated models beyond the bundled demo.
func Register(name string, ctor func() model.Template) {
	templates[name] = ctor
}

// BuildTemplate instantiates the Template named by d.Model.
func (d *Data) BuildTemplate() (model.Template, error) {
	ctor, ok := templates[d.Model]
	if !ok {
		return nil, chk.Err("cellin: unknown model %q", d.Model)
	}
	return ctor(), nil
}
