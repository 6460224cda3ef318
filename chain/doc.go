/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package chain models property paths as chains of links and reads or
// writes values along them.
//
// A path such as "Owner.Address.City" or `Items[2].Tags["k"]` is parsed
// once into an apis.Chain. Reads walk the chain link by link: a nil object
// before the leaf is a broken chain (ErrBrokenChain), while a nil leaf is a
// legitimate value. Index and key misses are transient (IsTransient) since
// collections change without replacing their owner.
package chain
