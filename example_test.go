package imageoptim_test

import (
	"context"
	"fmt"

	"imageoptim"
)

func Example() {
	opt, err := imageoptim.Optimize(context.Background(), "testdata/photo.jpg")
	if err != nil {
		fmt.Println("optimize:", err)
		return
	}
	if opt == nil {
		fmt.Println("already as small as it gets")
		return
	}
	saved, _ := opt.Saved()
	fmt.Printf("saved %d bytes, optimized copy at %s\n", saved, opt)
}
