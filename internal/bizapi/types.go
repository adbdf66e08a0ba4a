package bizapi

import "encoding/json"

// apiStatus is embedded in every response body.
type apiStatus struct {
	LogID     uint64 `json:"log_id"`
	ErrorCode int    `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

func (s apiStatus) err(statusCode int) error {
	if s.ErrorCode == 0 {
		return nil
	}
	return &APIError{StatusCode: statusCode, Code: s.ErrorCode, Message: s.ErrorMsg}
}

// QueryResponse is the raw license verification response.
type QueryResponse struct {
	apiStatus

	WordsResultNum int           `json:"words_result_num"`
	WordsResult    *LicenseWords `json:"words_result"`

	// Raw is the undecoded response body.
	Raw json.RawMessage `json:"-"`
}

// LicenseWords are the registry fields of a license lookup.
type LicenseWords struct {
	CompanyName           string `json:"companyname"`
	CompanyType           string `json:"companytype"`
	LegalPerson           string `json:"legalperson"`
	Capital               string `json:"capital"`
	CompanyCode           string `json:"companycode"`
	CompanyAddress        string `json:"companyaddress"`
	BusinessScope         string `json:"businessscope"`
	Authority             string `json:"authority"`
	CompanyStatus         string `json:"companystatus"`
	EstablishDate         string `json:"establishdate"`
	CreditNo              string `json:"creditno"`
	Province              string `json:"province"`
	City                  string `json:"city"`
	District              string `json:"district"`
	LicensedBusinessScope string `json:"licensedbusinessscope"`
}

// VerifyResponse is the raw two-factor verification response.
type VerifyResponse struct {
	apiStatus

	WordsResultNum int          `json:"words_result_num"`
	WordsResult    *VerifyWords `json:"words_result"`

	Raw json.RawMessage `json:"-"`
}

// VerifyWords are the match flags of a verification. "1" means match.
type VerifyWords struct {
	VerifyResult string `json:"verifyresult"`
	CompanyMatch string `json:"companymatch"`
	RegNumMatch  string `json:"regnummatch"`
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int    `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}
