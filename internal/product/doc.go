// Package product holds the Product record, the store contract used by the
// persistence backends, and the insert-or-reuse save path.
package product
