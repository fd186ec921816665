// Package spatial implements the SE(3) and spatial-vector algebra used by
// the dynamics recursions.
//
// Quantities follow the body-frame convention:
//
//   - [Transform]: rigid transform (rotation + translation)
//   - [Motion]: twist, angular on top of linear
//   - [Force]: wrench, moment on top of force
//   - [Inertia]: spatial inertia of a rigid body about its frame origin
//   - [Mat6]: general 6x6 operator, used for articulated inertias
//
// The adjoint maps Ad/AdInv move twists between frames; DualAdInv moves
// wrenches the opposite way so that power is preserved.
package spatial
