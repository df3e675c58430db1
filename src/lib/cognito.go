package lib

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"meetingroom/src/services"
	"meetingroom/src/types"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	cipTypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/tidwall/gjson"
)

// cognitoAPI is the subset of the Cognito client the adapter calls.
type cognitoAPI interface {
	InitiateAuth(ctx context.Context, params *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	GetUser(ctx context.Context, params *cip.GetUserInput, optFns ...func(*cip.Options)) (*cip.GetUserOutput, error)
	AdminCreateUser(ctx context.Context, params *cip.AdminCreateUserInput, optFns ...func(*cip.Options)) (*cip.AdminCreateUserOutput, error)
	AdminSetUserPassword(ctx context.Context, params *cip.AdminSetUserPasswordInput, optFns ...func(*cip.Options)) (*cip.AdminSetUserPasswordOutput, error)
}

// CognitoIdentityProvider checks credentials and access tokens against a
// Cognito user pool. Federated Google users arrive through the same pool.
type CognitoIdentityProvider struct {
	client       cognitoAPI
	userPoolID   string
	clientID     string
	clientSecret string
}

func NewCognitoIdentityProvider() *CognitoIdentityProvider {
	p := &CognitoIdentityProvider{
		userPoolID:   os.Getenv("COGNITO_USER_POOL_ID"),
		clientID:     os.Getenv("COGNITO_CLIENT_ID"),
		clientSecret: os.Getenv("COGNITO_CLIENT_SECRET"),
	}
	if client := AWSGetCognitoClient(); client != nil {
		p.client = client
	}
	return p
}

func NewCognitoIdentityProviderWithClient(client cognitoAPI, userPoolID, clientID, clientSecret string) *CognitoIdentityProvider {
	return &CognitoIdentityProvider{client: client, userPoolID: userPoolID, clientID: clientID, clientSecret: clientSecret}
}

// SecretHash is the HMAC Cognito requires when the app client has a secret.
func SecretHash(username, clientID, clientSecret string) string {
	mac := hmac.New(sha256.New, []byte(clientSecret))
	mac.Write([]byte(username + clientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func mapCognitoError(err error) error {
	var notAuthorized *cipTypes.NotAuthorizedException
	var notFound *cipTypes.UserNotFoundException
	if errors.As(err, &notAuthorized) || errors.As(err, &notFound) {
		return services.ErrUnauthorized
	}
	var exists *cipTypes.UsernameExistsException
	if errors.As(err, &exists) {
		v := services.NewValidationError()
		v.Add("username", "is already taken")
		return v
	}
	var weak *cipTypes.InvalidPasswordException
	if errors.As(err, &weak) {
		v := services.NewValidationError()
		v.Add("password", aws.ToString(weak.Message))
		return v
	}
	return err
}

func (c *CognitoIdentityProvider) Authenticate(ctx context.Context, username, password string) (*types.Identity, error) {
	if c.client == nil {
		return nil, ErrAWSUnavailable
	}
	params := map[string]string{
		"USERNAME": username,
		"PASSWORD": password,
	}
	if c.clientSecret != "" {
		params["SECRET_HASH"] = SecretHash(username, c.clientID, c.clientSecret)
	}
	out, err := c.client.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow:       cipTypes.AuthFlowTypeUserPasswordAuth,
		ClientId:       aws.String(c.clientID),
		AuthParameters: params,
	})
	if err != nil {
		log.Printf("[Cognito] authentication failed for %s: %s\n", username, err.Error())
		return nil, mapCognitoError(err)
	}
	if out.AuthenticationResult == nil {
		// challenges such as NEW_PASSWORD_REQUIRED are not supported here
		return nil, fmt.Errorf("%w: challenge %s", services.ErrUnauthorized, out.ChallengeName)
	}
	return c.ValidateToken(ctx, aws.ToString(out.AuthenticationResult.AccessToken))
}

func (c *CognitoIdentityProvider) ValidateToken(ctx context.Context, accessToken string) (*types.Identity, error) {
	if c.client == nil {
		return nil, ErrAWSUnavailable
	}
	out, err := c.client.GetUser(ctx, &cip.GetUserInput{AccessToken: aws.String(accessToken)})
	if err != nil {
		return nil, mapCognitoError(err)
	}
	attrs := map[string]string{}
	for _, a := range out.UserAttributes {
		attrs[aws.ToString(a.Name)] = aws.ToString(a.Value)
	}
	return IdentityFromAttributes(aws.ToString(out.Username), attrs), nil
}

// IdentityFromAttributes builds an identity from Cognito user attributes.
// Google sign-ins carry their Google user id inside the identities attribute.
func IdentityFromAttributes(username string, attrs map[string]string) *types.Identity {
	ident := &types.Identity{
		Subject:       attrs["sub"],
		Email:         attrs["email"],
		Username:      username,
		FullName:      attrs["name"],
		EmailVerified: attrs["email_verified"] == "true",
	}
	if raw, ok := attrs["identities"]; ok {
		google := gjson.Get(raw, `#(providerName=="Google").userId`)
		if google.Exists() {
			ident.GoogleID = google.String()
			ident.EmailVerified = true
		}
	}
	return ident
}

func (c *CognitoIdentityProvider) CreateExternalAccount(ctx context.Context, email, username, password string) (string, error) {
	if c.client == nil {
		return "", ErrAWSUnavailable
	}
	out, err := c.client.AdminCreateUser(ctx, &cip.AdminCreateUserInput{
		UserPoolId: aws.String(c.userPoolID),
		Username:   aws.String(username),
		UserAttributes: []cipTypes.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
		},
		MessageAction: cipTypes.MessageActionTypeSuppress,
	})
	if err != nil {
		return "", mapCognitoError(err)
	}
	if err := c.SetPassword(ctx, username, password); err != nil {
		return "", err
	}
	if out.User != nil {
		for _, a := range out.User.Attributes {
			if aws.ToString(a.Name) == "sub" {
				return aws.ToString(a.Value), nil
			}
		}
	}
	return "", nil
}

func (c *CognitoIdentityProvider) SetPassword(ctx context.Context, username, password string) error {
	if c.client == nil {
		return ErrAWSUnavailable
	}
	_, err := c.client.AdminSetUserPassword(ctx, &cip.AdminSetUserPasswordInput{
		UserPoolId: aws.String(c.userPoolID),
		Username:   aws.String(username),
		Password:   aws.String(password),
		Permanent:  true,
	})
	return mapCognitoError(err)
}
