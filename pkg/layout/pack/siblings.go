package pack

import (
	"math"
	"math/rand/v2"
)

type circle struct {
	x, y, r float64
}

type shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// newRand returns the fixed-seed source used for enclosing-circle shuffles.
func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(0x5eed, 0xc1c1e))
}

type link struct {
	c          *circle
	next, prev *link
}

// packSiblings positions circles tangent to one another around the origin
// and returns the radius of their enclosing circle. The enclosing circle is
// centred on the origin on return.
func packSiblings(circles []*circle, rng shuffler) float64 {
	n := len(circles)
	if n == 0 {
		return 0
	}

	a := circles[0]
	a.x, a.y = 0, 0
	if n == 1 {
		return a.r
	}

	b := circles[1]
	a.x = -b.r
	b.x, b.y = a.r, 0
	if n == 2 {
		return a.r + b.r
	}

	place(b, a, circles[2])

	la, lb, lc := &link{c: a}, &link{c: b}, &link{c: circles[2]}
	la.next, lc.prev = lb, lb
	lb.next, la.prev = lc, lc
	lc.next, lb.prev = la, la

outer:
	for i := 3; i < n; i++ {
		place(la.c, lb.c, circles[i])
		cur := &link{c: circles[i]}

		// Find the closest intersecting circle on the front chain, if any,
		// searching both directions weighted by accumulated radius.
		j, k := lb.next, la.prev
		sj, sk := lb.c.r, la.c.r
		for {
			if sj <= sk {
				if intersects(j.c, cur.c) {
					lb = j
					la.next, lb.prev = lb, la
					i--
					continue outer
				}
				sj += j.c.r
				j = j.next
			} else {
				if intersects(k.c, cur.c) {
					la = k
					la.next, lb.prev = lb, la
					i--
					continue outer
				}
				sk += k.c.r
				k = k.prev
			}
			if j == k.next {
				break
			}
		}

		cur.prev, cur.next = la, lb
		la.next, lb.prev = cur, cur
		lb = cur

		// Continue from the chain pair closest to the centroid.
		aa := score(la)
		for c := cur.next; c != cur; c = c.next {
			if ca := score(c); ca < aa {
				la, aa = c, ca
			}
		}
		lb = la.next
	}

	chain := []*circle{lb.c}
	for c := lb.next; c != lb; c = c.next {
		chain = append(chain, c.c)
	}
	e := enclose(chain, rng)
	for _, c := range circles {
		c.x -= e.x
		c.y -= e.y
	}
	return e.r
}

// place puts c tangent to both a and b.
func place(b, a, c *circle) {
	dx, dy := b.x-a.x, b.y-a.y
	d2 := dx*dx + dy*dy
	if d2 == 0 {
		c.x, c.y = a.x+c.r, a.y
		return
	}

	a2 := (a.r + c.r) * (a.r + c.r)
	b2 := (b.r + c.r) * (b.r + c.r)
	if a2 > b2 {
		x := (d2 + b2 - a2) / (2 * d2)
		y := math.Sqrt(math.Max(0, b2/d2-x*x))
		c.x = b.x - x*dx - y*dy
		c.y = b.y - x*dy + y*dx
	} else {
		x := (d2 + a2 - b2) / (2 * d2)
		y := math.Sqrt(math.Max(0, a2/d2-x*x))
		c.x = a.x + x*dx - y*dy
		c.y = a.y + x*dy + y*dx
	}
}

func intersects(a, b *circle) bool {
	dr := a.r + b.r - 1e-6
	dx, dy := b.x-a.x, b.y-a.y
	return dr > 0 && dr*dr > dx*dx+dy*dy
}

// score is the squared distance from the origin to the weighted midpoint
// of l and its successor.
func score(l *link) float64 {
	a, b := l.c, l.next.c
	ab := a.r + b.r
	dx := (a.x*b.r + b.x*a.r) / ab
	dy := (a.y*b.r + b.y*a.r) / ab
	return dx*dx + dy*dy
}

// enclose returns the smallest circle enclosing every circle (Welzl).
func enclose(circles []*circle, rng shuffler) circle {
	shuffled := make([]circle, len(circles))
	for i, c := range circles {
		shuffled[i] = *c
	}
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	var (
		basis []circle
		e     circle
		have  bool
	)
	for i := 0; i < len(shuffled); {
		p := shuffled[i]
		if have && enclosesWeak(e, p) {
			i++
			continue
		}
		basis = extendBasis(basis, p)
		e, have = encloseBasis(basis), true
		i = 0
	}
	return e
}

func extendBasis(basis []circle, p circle) []circle {
	if enclosesWeakAll(p, basis) {
		return []circle{p}
	}

	for _, b := range basis {
		if enclosesNot(p, b) && enclosesWeakAll(encloseBasis2(b, p), basis) {
			return []circle{b, p}
		}
	}

	for i := 0; i < len(basis)-1; i++ {
		for j := i + 1; j < len(basis); j++ {
			bi, bj := basis[i], basis[j]
			if enclosesNot(encloseBasis2(bi, bj), p) &&
				enclosesNot(encloseBasis2(bi, p), bj) &&
				enclosesNot(encloseBasis2(bj, p), bi) &&
				enclosesWeakAll(encloseBasis3(bi, bj, p), basis) {
				return []circle{bi, bj, p}
			}
		}
	}

	// Only reachable through floating point degeneracy.
	return []circle{p}
}

func enclosesNot(a, b circle) bool {
	dr := a.r - b.r
	dx, dy := b.x-a.x, b.y-a.y
	return dr < 0 || dr*dr < dx*dx+dy*dy
}

func enclosesWeak(a, b circle) bool {
	dr := a.r - b.r + math.Max(math.Max(a.r, b.r), 1)*1e-9
	dx, dy := b.x-a.x, b.y-a.y
	return dr > 0 && dr*dr > dx*dx+dy*dy
}

func enclosesWeakAll(a circle, basis []circle) bool {
	for _, b := range basis {
		if !enclosesWeak(a, b) {
			return false
		}
	}
	return true
}

func encloseBasis(basis []circle) circle {
	switch len(basis) {
	case 1:
		return basis[0]
	case 2:
		return encloseBasis2(basis[0], basis[1])
	default:
		return encloseBasis3(basis[0], basis[1], basis[2])
	}
}

func encloseBasis2(a, b circle) circle {
	x21, y21, r21 := b.x-a.x, b.y-a.y, b.r-a.r
	l := math.Sqrt(x21*x21 + y21*y21)
	return circle{
		x: (a.x + b.x + x21/l*r21) / 2,
		y: (a.y + b.y + y21/l*r21) / 2,
		r: (l + a.r + b.r) / 2,
	}
}

func encloseBasis3(a, b, c circle) circle {
	x1, y1, r1 := a.x, a.y, a.r
	a2, a3 := x1-b.x, x1-c.x
	b2, b3 := y1-b.y, y1-c.y
	c2, c3 := b.r-r1, c.r-r1
	d1 := x1*x1 + y1*y1 - r1*r1
	d2 := d1 - b.x*b.x - b.y*b.y + b.r*b.r
	d3 := d1 - c.x*c.x - c.y*c.y + c.r*c.r
	ab := a3*b2 - a2*b3
	xa := (b2*d3-b3*d2)/(ab*2) - x1
	xb := (b3*c2 - b2*c3) / ab
	ya := (a3*d2-a2*d3)/(ab*2) - y1
	yb := (a2*c3 - a3*c2) / ab
	qa := xb*xb + yb*yb - 1
	qb := 2 * (r1 + xa*xb + ya*yb)
	qc := xa*xa + ya*ya - r1*r1
	var r float64
	if math.Abs(qa) > 1e-6 {
		r = -(qb + math.Sqrt(qb*qb-4*qa*qc)) / (2 * qa)
	} else {
		r = -(qc / qb)
	}
	return circle{x: x1 + xa + xb*r, y: y1 + ya + yb*r, r: r}
}
