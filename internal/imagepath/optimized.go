package imagepath

// Optimized annotates a path produced by the optimization engine with the
// file it came from and that file's size before optimization. The engine
// only emits an Optimized whose current size is strictly below
// OriginalSize.
type Optimized struct {
	*Path

	Original     *Path
	OriginalSize int64
}

// Saved reports how many bytes optimization removed, based on the current
// size of the optimized file.
func (o *Optimized) Saved() (int64, error) {
	size, err := o.Size()
	if err != nil {
		return 0, err
	}
	return o.OriginalSize - size, nil
}
