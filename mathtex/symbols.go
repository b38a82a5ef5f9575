package mathtex

var spacing = map[string]float64{
	",":     0.17,
	":":     0.22,
	">":     0.22,
	";":     0.28,
	"!":     -0.17,
	" ":     0.33,
	"quad":  1,
	"qquad": 2,
}

var functions = map[string]string{
	"sin": "sin", "cos": "cos", "tan": "tan", "cot": "cot", "sec": "sec", "csc": "csc",
	"arcsin": "arcsin", "arccos": "arccos", "arctan": "arctan",
	"sinh": "sinh", "cosh": "cosh", "tanh": "tanh",
	"log": "log", "ln": "ln", "lg": "lg", "exp": "exp",
	"lim": "lim", "liminf": "lim inf", "limsup": "lim sup",
	"max": "max", "min": "min", "sup": "sup", "inf": "inf",
	"det": "det", "dim": "dim", "ker": "ker", "deg": "deg", "gcd": "gcd", "arg": "arg",
	"Pr": "Pr", "mod": "mod", "bmod": "mod",
}

func sym(s string) atom { return atom{text: s} }
func greek(s string) atom { return atom{text: s, italic: true} }
func rel(s string) atom { return atom{text: s, op: true} }
func bigop(s string) atom { return atom{text: s, large: true} }

var symbols = map[string]atom{
	"alpha": greek("α"), "beta": greek("β"), "gamma": greek("γ"), "delta": greek("δ"),
	"epsilon": greek("ϵ"), "varepsilon": greek("ε"), "zeta": greek("ζ"), "eta": greek("η"),
	"theta": greek("θ"), "vartheta": greek("ϑ"), "iota": greek("ι"), "kappa": greek("κ"),
	"lambda": greek("λ"), "mu": greek("μ"), "nu": greek("ν"), "xi": greek("ξ"),
	"pi": greek("π"), "varpi": greek("ϖ"), "rho": greek("ρ"), "varrho": greek("ϱ"),
	"sigma": greek("σ"), "varsigma": greek("ς"), "tau": greek("τ"), "upsilon": greek("υ"),
	"phi": greek("ϕ"), "varphi": greek("φ"), "chi": greek("χ"), "psi": greek("ψ"), "omega": greek("ω"),
	"Gamma": sym("Γ"), "Delta": sym("Δ"), "Theta": sym("Θ"), "Lambda": sym("Λ"),
	"Xi": sym("Ξ"), "Pi": sym("Π"), "Sigma": sym("Σ"), "Upsilon": sym("Υ"),
	"Phi": sym("Φ"), "Psi": sym("Ψ"), "Omega": sym("Ω"),

	"cdot": rel("·"), "times": rel("×"), "div": rel("÷"), "pm": rel("±"), "mp": rel("∓"),
	"ast": rel("∗"), "star": rel("⋆"), "circ": rel("∘"), "bullet": rel("∙"),
	"le": rel("≤"), "leq": rel("≤"), "ge": rel("≥"), "geq": rel("≥"),
	"ne": rel("≠"), "neq": rel("≠"), "approx": rel("≈"), "equiv": rel("≡"),
	"sim": rel("∼"), "simeq": rel("≃"), "cong": rel("≅"), "propto": rel("∝"),
	"ll": rel("≪"), "gg": rel("≫"), "prec": rel("≺"), "succ": rel("≻"),
	"in": rel("∈"), "notin": rel("∉"), "ni": rel("∋"),
	"subset": rel("⊂"), "subseteq": rel("⊆"), "supset": rel("⊃"), "supseteq": rel("⊇"),
	"cup": rel("∪"), "cap": rel("∩"), "setminus": rel("∖"),
	"land": rel("∧"), "wedge": rel("∧"), "lor": rel("∨"), "vee": rel("∨"),
	"oplus": rel("⊕"), "otimes": rel("⊗"),
	"to": rel("→"), "rightarrow": rel("→"), "leftarrow": rel("←"), "gets": rel("←"),
	"Rightarrow": rel("⇒"), "Leftarrow": rel("⇐"), "leftrightarrow": rel("↔"),
	"Leftrightarrow": rel("⇔"), "iff": rel("⇔"), "implies": rel("⇒"), "mapsto": rel("↦"),
	"longrightarrow": rel("⟶"), "uparrow": sym("↑"), "downarrow": sym("↓"),
	"perp": rel("⊥"), "parallel": rel("∥"), "mid": rel("∣"),

	"sum": bigop("∑"), "prod": bigop("∏"), "coprod": bigop("∐"),
	"int": bigop("∫"), "iint": bigop("∬"), "iiint": bigop("∭"), "oint": bigop("∮"),
	"bigcup": bigop("⋃"), "bigcap": bigop("⋂"),

	"infty": sym("∞"), "partial": sym("∂"), "nabla": sym("∇"), "forall": sym("∀"),
	"exists": sym("∃"), "nexists": sym("∄"), "emptyset": sym("∅"), "varnothing": sym("∅"),
	"neg": sym("¬"), "lnot": sym("¬"), "angle": sym("∠"), "triangle": sym("△"),
	"ldots": sym("…"), "dots": sym("…"), "cdots": sym("⋯"), "vdots": sym("⋮"), "ddots": sym("⋱"),
	"prime": sym("′"), "hbar": sym("ℏ"), "ell": sym("ℓ"), "Re": sym("ℜ"), "Im": sym("ℑ"),
	"aleph": sym("ℵ"), "degree": sym("°"), "checkmark": sym("✓"),
	"langle": sym("⟨"), "rangle": sym("⟩"), "lfloor": sym("⌊"), "rfloor": sym("⌋"),
	"lceil": sym("⌈"), "rceil": sym("⌉"), "vert": sym("|"), "Vert": sym("‖"),
	"lbrace": sym("{"), "rbrace": sym("}"),
}

var doubleStruck = map[rune]rune{
	'N': 'ℕ', 'Z': 'ℤ', 'Q': 'ℚ', 'R': 'ℝ', 'C': 'ℂ', 'P': 'ℙ', 'H': 'ℍ',
	'1': '𝟙',
}
