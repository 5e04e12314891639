// Copyright 2025 The goyaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

package yaml

import "github.com/yamlcore/goyaml/internal/engine"

// Visitor receives one Value's worth of content and turns it into whatever
// representation the caller wants. Implement it to plug a custom
// destination type into Decode without going through reflection.
type Visitor = engine.Visitor

// SeqAccess lets a Visitor pull sequence elements one at a time, each
// dispatched against a Visitor of the caller's choosing.
type SeqAccess = engine.SeqAccess

// MapAccess lets a Visitor pull mapping entries one key/value pair at a
// time.
type MapAccess = engine.MapAccess

// Unmarshaler is implemented by host types that want to take over their
// own decoding from a Value node.
type Unmarshaler = engine.Unmarshaler
