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

package graphutil

// DepthFirstOrder walks the graph reachable from roots and returns, for
// every visited node, its position in postorder (the order in which DFS
// finishes visiting it - successors before the node itself). A node
// unreachable from roots has no entry, which is how callers such as a
// dataflow worklist tell "never visited" apart from "visited first".
//
// Reverse-postorder - the usual numbering for a forward worklist - is just
// this order read from the opposite end: ReversePostorder gives that
// directly.
func DepthFirstOrder[T comparable](roots []T, successors func(T) []T) (postorder map[T]int, order []T) {
	postorder = make(map[T]int)
	order = make([]T, 0)

	var visit func(v T)
	visit = func(v T) {
		if _, seen := postorder[v]; seen {
			return
		}
		postorder[v] = -1 // mark in-progress so cycles don't recurse forever
		for _, w := range successors(v) {
			if _, seen := postorder[w]; !seen {
				visit(w)
			}
		}
		postorder[v] = len(order)
		order = append(order, v)
	}
	for _, r := range roots {
		if _, seen := postorder[r]; !seen {
			visit(r)
		}
	}
	return postorder, order
}

// ReversePostorder numbers every node reachable from roots so that a node
// sorts before its successors, except along a back edge of a cycle - the
// order a forward worklist should
// drain in to minimize re-processing. Nodes not reachable from roots are
// absent from the result.
func ReversePostorder[T comparable](roots []T, successors func(T) []T) map[T]int {
	postorder, order := DepthFirstOrder(roots, successors)
	n := len(order)
	rank := make(map[T]int, n)
	for v, p := range postorder {
		rank[v] = n - 1 - p
	}
	return rank
}

// Postorder numbers every node reachable from roots in plain DFS-finish
// order: a root is numbered after every node first reached from it. It is
// the opposite end of ReversePostorder's numbering.
func Postorder[T comparable](roots []T, successors func(T) []T) map[T]int {
	postorder, _ := DepthFirstOrder(roots, successors)
	return postorder
}
