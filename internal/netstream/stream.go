// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
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

// Package netstream wraps the plain-TCP and TLS variants of a connection
// behind a single interface, so the dispatcher and proxy don't need to know
// which one they're holding. net.Conn already gives us this for free since
// *tls.Conn satisfies it, but Stream keeps the vocabulary explicit the way
// the original design's TcpClient enum did.
package netstream

import "net"

// Stream is any net.Conn the proxy can read from and write to, plain or
// TLS. No inheritance needed: both variants already implement net.Conn.
type Stream = net.Conn
