// Package mpmk builds mini-program projects. It copies and transforms the
// assets below the source directory into the distribution directory:
//
//	wxml  markup files are copied
//	js    scripts are copied, except the environment variants in env/
//	json  configuration files are copied
//	wxss  SCSS and WXSS sources are compiled into .wxss style sheets
//	img   images are compressed
//
// Together with clean and the environment tasks devEnv, testEnv and prodEnv,
// which select one of src/env/{dev,tes,prod}.js as dist/env.js, these tasks
// form the compositions
//
//	build = clean, then wxml js json wxss img prodEnv in parallel
//	dev   = clean, then wxml js json wxss img devEnv in parallel, then watch
//	test  = clean, then wxml js json wxss img testEnv in parallel
//
// All file tasks except clean are incremental: they only process the files
// modified since their last successful run.
//
// The project layout
//
//	project/
//	├── mpmk.yaml
//	├── src
//	│   ├── app.json
//	│   ├── env
//	│   │   ├── dev.js
//	│   │   ├── prod.js
//	│   │   └── tes.js
//	│   ├── pages
//	│   ├── components
//	│   ├── scss
//	│   └── template
//	│       ├── components
//	│       └── pages
//	└── dist
//
// Build with
//
//	project$ mpmk build
package mpmk
