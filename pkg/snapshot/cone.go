package snapshot

import (
	"github.com/tinunadno/render-engine-family/pkg/math3d"
	"github.com/tinunadno/render-engine-family/pkg/models"
)

// ViewCone builds a triangle fan from the camera position through each
// point of the region of interest, extended length units into the scene.
// Intersecting the cones of several snapshots of one object outlines it.
// It returns nil when the ROI has fewer than three points.
func ViewCone[T math3d.Float](s *Snapshot, length T) *models.Model[T] {
	n := len(s.ROI)
	if n < 3 || s.Width <= 0 || s.Height <= 0 {
		return nil
	}
	p := s.Pose
	apex := arrayVec3[T](p.Position)
	forward := arrayVec3[T](p.Forward)
	right := arrayVec3[T](p.Right)
	up := arrayVec3[T](p.Up)

	m := models.NewModel[T]("view cone")
	g := &m.Geometry
	g.Vertices = append(g.Vertices, apex)
	for _, pt := range s.ROI {
		ndcX := T(pt.X)/T(s.Width)*2 - 1
		ndcY := 1 - T(pt.Y)/T(s.Height)*2
		local := math3d.V3(ndcX*T(p.Sensor[0])/2, ndcY*T(p.Sensor[1])/2, T(p.FocalLength))
		local = local.Normalize().Scale(length)
		g.Vertices = append(g.Vertices,
			apex.Add(right.Scale(local.X)).Add(up.Scale(local.Y)).Add(forward.Scale(local.Z)))
	}
	for i := range n {
		g.Faces = append(g.Faces, models.Face{
			{V: 0, UV: models.Absent, N: models.Absent},
			{V: 1 + i, UV: models.Absent, N: models.Absent},
			{V: 1 + (i+1)%n, UV: models.Absent, N: models.Absent},
		})
	}
	return m
}
