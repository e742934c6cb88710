// Package physics provides the barotropic vorticity tendency.
//
// [Barotropic] implements [dynamo.System]. For a state with spectral
// vorticity ζ̂ it returns
//
//	∂ζ/∂t = -J(ψ, ζ + f) - νₙ ζ̂(t-Δt) + F,   νₙ = ν (λₙ/λ_T)ᵏ
//
// where ∇²ψ = ζ, f = 2Ω sin φ and λₙ = n(n+1)/a². The Jacobian is formed
// on the Gaussian grid and projected back onto the truncation, which
// removes the aliased products. Diffusion uses the previous time level and
// the whole tendency is scaled by 1/(1+νₙΔt).
//
//	sys, err := physics.NewBarotropic(eng, physics.DefaultParams())
//	tend, err := sys.Tendency(st, 1200)
package physics
