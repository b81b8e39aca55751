package goforma

// Package goforma provides:
//
// - A declarative schema model for forms (field trees, validation rules, conditions)
// - A stable error model via Issues (dotted path, code, message)
// - Dependency-aware async option sources with caching, de-duplication, and debounce
// - Per-field resolution into renderer-ready descriptors (visibility, options, state)
//
// Design policy:
// - Keep contracts and pure data in the root package; put subsystems in subpackages.
// - Place the fetch engine under datasource/, resolution under form/, the
//   validator under validate/, builders under dsl/, and the CLI under cmd/goforma.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//  schema, err := goforma.ParseJSON(doc)
//  ctrl := controller.New(nil)
//  f, err := form.New(schema, ctrl,
//      form.WithRegistry(reg),
//      form.WithDataSources(sources))
//  descriptors := f.Render(ctx)
//
