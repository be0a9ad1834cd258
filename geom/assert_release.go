//go:build !vellumdebug

package geom

const strictAssertions = false
