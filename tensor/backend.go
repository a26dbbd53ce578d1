// Copyright 2025 The Raug Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/peuBouzon/raug/internal/tensor"
)

// Backend is the interface compute backends implement. All tensor
// operations dispatch through a Backend, so models are generic over the
// device they run on.
type Backend = tensor.Backend
