package main

import (
	"fmt"
	"log"
)

func main() {
	fmt.Println("allowed in main")
	log.Print("allowed in main")
}
