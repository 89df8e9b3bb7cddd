package llm

// Credentials holds one API key per provider. A provider with an empty
// key simply gets no client — the router reports it as not configured.
type Credentials struct {
	OpenAI    string
	Anthropic string
	Google    string
	Replicate string
	Together  string
}

// BuildClients constructs a client per credentialed provider.
func BuildClients(creds Credentials, poll PollConfig) []Client {
	var clients []Client
	if creds.OpenAI != "" {
		clients = append(clients, NewOpenAIClient(creds.OpenAI))
	}
	if creds.Anthropic != "" {
		clients = append(clients, NewAnthropicClient(creds.Anthropic))
	}
	if creds.Google != "" {
		clients = append(clients, NewGoogleClient(creds.Google))
	}
	if creds.Replicate != "" {
		clients = append(clients, NewReplicateClient(creds.Replicate, poll))
	}
	if creds.Together != "" {
		clients = append(clients, NewTogetherClient(creds.Together))
	}
	return clients
}
