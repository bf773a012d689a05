package config

// Environment variables used by the application
const (
	// Chain id the EVM wallet is moved to after connecting. Default is 8453
	// (Base mainnet)
	BASE_CHAIN_ID = "BASE_CHAIN_ID"
	// Public Base rpc url used for contract reads and receipts - http url
	BASE_RPC_URL = "BASE_RPC_URL"
	// Name and explorer used when the wallet has to register BASE_CHAIN_ID.
	// Name is required for chain ids outside of the built in Base networks
	BASE_CHAIN_NAME   = "BASE_CHAIN_NAME"
	BASE_EXPLORER_URL = "BASE_EXPLORER_URL"
	// Address of the EVM contract the dApp talks to
	BASE_CONTRACT_ADDRESS = "BASE_CONTRACT_ADDRESS"
	// Path to the JSON abi of BASE_CONTRACT_ADDRESS
	BASE_CONTRACT_ABI = "BASE_CONTRACT_ABI"

	// Wallet endpoint serving eth_requestAccounts and friends - should be
	// websockets url so account and chain notifications are delivered
	EVM_PROVIDER_URL = "EVM_PROVIDER_URL"

	// mainnet or testnet. Default is mainnet
	STACKS_NETWORK = "STACKS_NETWORK"
	// Overrides the core api url of the selected Stacks network
	STACKS_API_URL = "STACKS_API_URL"
	// Deployer of the Stacks contract
	STACKS_CONTRACT_ADDRESS = "STACKS_CONTRACT_ADDRESS"
	// Name of the Stacks contract. Default is witnesschain
	STACKS_CONTRACT_NAME = "STACKS_CONTRACT_NAME"
	// File the Stacks session is persisted to
	STACKS_SESSION_FILE = "STACKS_SESSION_FILE"

	// Name and icon shown in wallet prompts
	APP_NAME = "APP_NAME"
	APP_ICON = "APP_ICON"

	// Transaction confirmation polling. Defaults are 30 attempts every 2s
	TX_MAX_ATTEMPTS  = "TX_MAX_ATTEMPTS"
	TX_POLL_INTERVAL = "TX_POLL_INTERVAL"

	// debug, info, warn or error. Default is info
	LOG_LEVEL = "LOG_LEVEL"
)
