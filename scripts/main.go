package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/brewcycle/brewcycle/scripts/internal"
)

// Command represents a script that can be run
type Command struct {
	Name        string
	Description string
	Run         func() error
}

var commands = []Command{
	{
		Name:        "generate-apikey",
		Description: "Generate a new admin API key and its config entry",
		Run:         internal.GenerateNewAPIKey,
	},
	{
		Name:        "generate-token",
		Description: "Issue a signed JWT for a user",
		Run:         internal.GenerateToken,
	},
	{
		Name:        "seed-products",
		Description: "Load catalog products from a JSON file into postgres",
		Run:         internal.SeedProducts,
	},
}

func main() {
	var (
		listCommands bool
		cmdName      string
		userID       string
		role         string
		productsFile string
	)

	flag.BoolVar(&listCommands, "list", false, "List all available commands")
	flag.StringVar(&cmdName, "cmd", "", "Command to run")
	flag.StringVar(&userID, "user-id", "", "User ID for key and token commands")
	flag.StringVar(&role, "role", "", "Role claim for generate-token (customer or admin)")
	flag.StringVar(&productsFile, "products-file", "", "Path to products JSON file")

	flag.Parse()

	if listCommands {
		fmt.Println("Available commands:")
		for _, cmd := range commands {
			fmt.Printf("  %-20s %s\n", cmd.Name, cmd.Description)
		}
		return
	}

	if cmdName == "" {
		log.Fatal("Please specify a command to run using -cmd flag. Use -list to see available commands.")
	}

	if userID != "" {
		os.Setenv("USER_ID", userID)
	}
	if role != "" {
		os.Setenv("ROLE", role)
	}
	if productsFile != "" {
		os.Setenv("PRODUCTS_FILE", productsFile)
	}

	for _, cmd := range commands {
		if cmd.Name == cmdName {
			if err := cmd.Run(); err != nil {
				log.Fatalf("Error running command %s: %v", cmdName, err)
			}
			return
		}
	}

	log.Fatalf("Unknown command: %s. Use -list to see available commands.", cmdName)
}
