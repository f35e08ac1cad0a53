// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package analysis

import "fmt"

// ContractError reports a violation of one of the engine's own invariants,
// such as a backward transfer function producing a then/else split store,
// or PerformAnalysis being called reentrantly. These are bugs
// in the caller or the transfer function, never in the program under
// analysis, and are meant to be fatal rather than recovered from.
type ContractError struct {
	Site   string
	Detail string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("dataflow: contract violation in %s: %s", e.Site, e.Detail)
}

func contractErrorf(site, format string, args ...any) error {
	return &ContractError{Site: site, Detail: fmt.Sprintf(format, args...)}
}

// TransferError wraps a failure returned by a client's transfer function,
// so callers can distinguish "the analysis itself is broken" (ContractError)
// from "the thing being analyzed produced a node the transfer function
// could not handle".
type TransferError struct {
	Node string
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("dataflow: transfer function failed at %s: %v", e.Node, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }
