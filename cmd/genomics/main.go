// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package main

import genomics "github.com/HallLab/pandas-genomics"

func main() {
	genomics.Main()
}
