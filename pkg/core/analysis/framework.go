package analysis

import "regexp"

// FrameworkSignature is one row of the framework detection table.
type FrameworkSignature struct {
	Name     string
	Patterns []*regexp.Regexp
}

func signature(name string, patterns ...string) FrameworkSignature {
	sig := FrameworkSignature{Name: name}
	for _, p := range patterns {
		sig.Patterns = append(sig.Patterns, regexp.MustCompile(p))
	}
	return sig
}

// Frameworks is evaluated in order; the first row with any matching pattern
// wins regardless of where in the content the match occurs.
var Frameworks = []FrameworkSignature{
	signature("FastAPI", `from fastapi import`, `FastAPI\(`),
	signature("Flask", `from flask import`, `Flask\(__name__\)`),
	signature("Django", `from django`, `DJANGO_SETTINGS_MODULE`),
	signature("Express", `require\(['"]express['"]\)`, `from ['"]express['"]`),
	signature("Next.js", `from ['"]next`, `next/`),
	signature("React", `from ['"]react['"]`, `import React`),
	signature("Vue", `from ['"]vue['"]`, `createApp`),
	signature("Spring", `@SpringBootApplication`, `springframework`),
	signature("Gin", `github\.com/gin-gonic/gin`),
	signature("Echo", `github\.com/labstack/echo`),
	signature("Fiber", `github\.com/gofiber/fiber`),
	signature("Actix", `actix_web`, `actix-web`),
}

// DetectFramework returns the first framework in Frameworks matching content.
func DetectFramework(content string) (string, bool) {
	for _, fw := range Frameworks {
		for _, re := range fw.Patterns {
			if re.MatchString(content) {
				return fw.Name, true
			}
		}
	}
	return "", false
}
