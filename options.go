package glass

// GroupOption configures a Group during creation.
// Use functional options to customize Group behavior.
//
// Example:
//
//	// Default settings, identity transform, scale 1
//	g := glass.NewGroup()
//
//	// HiDPI group with custom optics
//	g := glass.NewGroup(glass.WithScale(2), glass.WithSettings(s))
type GroupOption func(*groupOptions)

// groupOptions holds optional configuration for Group creation.
type groupOptions struct {
	settings    Settings
	transform   Matrix
	scale       float64
	parallelism int
}

// defaultGroupOptions returns the default group options.
func defaultGroupOptions() groupOptions {
	return groupOptions{
		settings:    DefaultSettings(),
		transform:   Identity(),
		scale:       1,
		parallelism: 0, // 0 = one worker per CPU
	}
}

// WithSettings sets the initial optical settings of the Group.
// Equivalent to calling SetSettings right after NewGroup.
func WithSettings(s Settings) GroupOption {
	return func(o *groupOptions) {
		o.settings = s
	}
}

// WithTransform sets the initial group-to-screen transform.
func WithTransform(m Matrix) GroupOption {
	return func(o *groupOptions) {
		o.transform = m
	}
}

// WithScale sets the device pixel ratio the matte is baked at.
// Values below a small epsilon fall back to 1.
func WithScale(scale float64) GroupOption {
	return func(o *groupOptions) {
		o.scale = scale
	}
}

// WithParallelism caps the number of workers used for pixel rows during
// the geometry bake and the optical pass. 0 uses one worker per CPU;
// 1 serializes all pixel work onto a single worker.
func WithParallelism(workers int) GroupOption {
	return func(o *groupOptions) {
		o.parallelism = workers
	}
}

// CompositorOption configures a Compositor during creation.
type CompositorOption func(*compositorOptions)

// compositorOptions holds optional configuration for Compositor creation.
type compositorOptions struct {
	matteBudget int64
}

// defaultCompositorOptions returns the default compositor options.
func defaultCompositorOptions() compositorOptions {
	return compositorOptions{
		matteBudget: 64 << 20, // 64 MB of cached mattes
	}
}

// WithMatteBudget sets the byte budget of the compositor's matte cache.
// Evicted mattes are rebaked on the owning group's next paint. With a
// budget of 0 the compositor attaches no shared cache and each group
// holds its single matte directly.
func WithMatteBudget(bytes int64) CompositorOption {
	return func(o *compositorOptions) {
		o.matteBudget = bytes
	}
}
