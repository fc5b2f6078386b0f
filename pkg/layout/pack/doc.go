// Package pack computes a circle-packing layout: every tree node becomes a
// disc nested inside its parent's disc.
//
// # Algorithm
//
// Leaves get a radius from their weight, where a node weighs the square root
// of its Value plus the weights of its children. Siblings are then placed
// with the front-chain algorithm of Wang et al. ("Visualization of large
// hierarchical data by circle packing", 2006): each new disc is put tangent
// to two discs of the current front chain, as close to the centroid as
// possible without overlapping. The parent disc is the smallest circle
// enclosing its children, found with Welzl's randomized algorithm under a
// fixed seed so layouts are reproducible.
//
// Packing runs twice. The first pass without padding measures the root; the
// second pass pads siblings by the padding scaled into the unscaled
// coordinate space, so the final gap between sibling discs equals the
// requested pixel padding after the root is scaled to fit the bounds.
//
// # Padding
//
// Small trees look sparse with a fixed gap, so [AdaptivePadding] widens it:
// 200 for a root with one child, 40 below six nodes, 7 otherwise.
package pack
