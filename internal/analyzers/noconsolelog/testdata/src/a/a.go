package a

import (
	"fmt"
	"io"
	"log"
)

func report(w io.Writer, n int) string {
	fmt.Println("n =", n)     // want `fmt.Println outside package main`
	fmt.Printf("n = %d\n", n) // want `fmt.Printf outside package main`
	log.Printf("n = %d", n)   // want `log.Printf outside package main`
	println(n)                // want `builtin println writes to stderr`

	fmt.Fprintf(w, "n = %d\n", n)
	return fmt.Sprintf("%d", n)
}

func fail(err error) {
	log.Fatal(err) // want `log.Fatal outside package main`
}
