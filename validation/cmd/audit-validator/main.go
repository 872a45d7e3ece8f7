package main

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cloudx-io/bondauction/validation"
)

func main() {
	var (
		trailInput  = flag.String("trail", "", "Signed audit trail, base64 COSE Sign1 (file path or inline)")
		keyInput    = flag.String("operator-key", "", "Operator trail-signing public key, PEM (file path or inline)")
		supplyFlag  = flag.String("supply", "", "Published bond supply")
		minFlag     = flag.String("min-price", "", "Published minimum price")
		maxFlag     = flag.String("max-price", "", "Published maximum price")
		outputFlag  = flag.String("format", "text", "Output format: text or json")
		help        = flag.Bool("help", false, "Show usage information")
	)

	flag.Parse()

	if *help {
		showUsage()
		os.Exit(0)
	}

	if *trailInput == "" || *keyInput == "" || *supplyFlag == "" || *minFlag == "" || *maxFlag == "" {
		showUsage()
		fmt.Fprintf(os.Stderr, "\nError: --trail, --operator-key, --supply, --min-price and --max-price are required\n")
		os.Exit(1)
	}

	trailB64, err := readInput(*trailInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading trail: %v\n", err)
		os.Exit(2)
	}
	signedTrail, err := base64.StdEncoding.DecodeString(strings.TrimSpace(trailB64))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding trail base64: %v\n", err)
		os.Exit(2)
	}

	keyPEM, err := readInput(*keyInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading operator key: %v\n", err)
		os.Exit(2)
	}
	publicKey, err := parseECDSAPublicKey([]byte(keyPEM))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing operator key: %v\n", err)
		os.Exit(2)
	}

	supply, minPrice, maxPrice, err := parseBounds(*supplyFlag, *minFlag, *maxFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing auction parameters: %v\n", err)
		os.Exit(2)
	}

	result, err := validation.ValidateAuditTrail(&validation.AuditValidationInput{
		SignedTrail:       signedTrail,
		OperatorPublicKey: publicKey,
		BondSupply:        supply,
		MinPrice:          minPrice,
		MaxPrice:          maxPrice,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation error: %v\n", err)
		os.Exit(2)
	}

	switch *outputFlag {
	case "json":
		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(out))
	default:
		printText(result)
	}

	if !result.IsValid() {
		os.Exit(3)
	}
}

func printText(result *validation.AuditValidationResult) {
	fmt.Printf("Signature valid:      %v\n", result.SignatureValid)
	fmt.Printf("Commitments valid:    %v\n", result.CommitmentsValid)
	fmt.Printf("Prices in bounds:     %v\n", result.PricesInBounds)
	fmt.Printf("Clearing price valid: %v\n", result.ClearingPriceValid)
	fmt.Printf("Supply conserved:     %v\n", result.SupplyConserved)
	fmt.Printf("Payments valid:       %v\n", result.PaymentsValid)
	fmt.Printf("Records:              %d\n", len(result.Records))
	if len(result.ValidationDetails) > 0 {
		fmt.Println("Details:")
		for _, detail := range result.ValidationDetails {
			fmt.Printf("  - %s\n", detail)
		}
	}
	if result.IsValid() {
		fmt.Println("RESULT: VALID")
	} else {
		fmt.Println("RESULT: INVALID")
	}
}

// readInput reads a value that is either a file path or inline content.
func readInput(input string) (string, error) {
	if _, err := os.Stat(input); err == nil {
		data, err := os.ReadFile(input)
		if err != nil {
			return "", fmt.Errorf("failed to read file %s: %w", input, err)
		}
		return string(data), nil
	}
	return input, nil
}

func parseECDSAPublicKey(pemBytes []byte) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, fmt.Errorf("input is not a PEM-encoded public key")
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	ecdsaKey, ok := key.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is %T, not ECDSA", key)
	}
	return ecdsaKey, nil
}

func parseBounds(supplyStr, minStr, maxStr string) (supply, minPrice, maxPrice decimal.Decimal, err error) {
	supply, err = decimal.NewFromString(supplyStr)
	if err != nil {
		return supply, minPrice, maxPrice, fmt.Errorf("invalid supply %q: %w", supplyStr, err)
	}
	minPrice, err = decimal.NewFromString(minStr)
	if err != nil {
		return supply, minPrice, maxPrice, fmt.Errorf("invalid min price %q: %w", minStr, err)
	}
	maxPrice, err = decimal.NewFromString(maxStr)
	if err != nil {
		return supply, minPrice, maxPrice, fmt.Errorf("invalid max price %q: %w", maxStr, err)
	}
	return supply, minPrice, maxPrice, nil
}

func showUsage() {
	fmt.Println(`audit-validator - verify a signed auction audit trail

Usage:
  audit-validator --trail <file|base64> --operator-key <file|pem> \
    --supply <amount> --min-price <amount> --max-price <amount> [--format text|json]

Checks performed:
  - COSE Sign1 signature by the operator's trail-signing key
  - every reveal re-derives its stored commitment
  - revealed prices and the clearing price are within the published bounds
  - claimed allocations never exceed the reported total or the bond supply
  - each claim payment equals allocation * clearing price at the ledger scale

Exit codes: 0 valid, 1 usage error, 2 input error, 3 invalid trail`)
}
