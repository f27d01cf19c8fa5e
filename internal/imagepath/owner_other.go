//go:build !unix

package imagepath

func preserveOwner(src, dst string) {}
