// Package prompts holds the fixed prompt for the registration-form
// extraction engine. Field names stay in the source language: they are the
// vocabulary of the paper form and of every downstream consumer.
package prompts

// FormExtractionSystemPrompt instructs the model to return only a JSON
// document matching the registration-form schema.
const FormExtractionSystemPrompt = `You are an AI assistant that extracts information from Vietnamese student registration forms.
The image contains a registration form with these fields:
Họ và tên, CCCD, Điện thoại, Email, Trường THPT, Lớp, Tỉnh, Điện thoại phụ huynh, Ngành đăng ký xét tuyển, Môn học đã chọn ở cấp THPT, Môn thi tốt nghiệp THPT, Phương thức xét tuyển đại học.

STRICT REQUIREMENTS:
- Return ONLY a single JSON document matching the schema below.
- Do not emit any description, markdown, explanation, or notes outside the JSON.
- Missing fields must be the empty string "".
- Checkbox fields must be booleans: true or false.
- The admission-major list must be an array of exactly 3 elements.
- Respect the field types: string, boolean, array.
- The JSON must be valid so it can be processed automatically.

Schema:

{
"ho_va_ten": "",
"cccd": "",
"dien_thoai": "",
"email": "",
"truong_thpt": "",
"lop": "",
"tinh": "",
"dien_thoai_phu_huynh": "",
"nganh_xet_tuyen": ["", "", ""],
"mon_chon_cap_thpt": {
    "Ngu van": true,
    "Toan": true,
    "Lich su": true,
    "Hoa hoc": true,
    "Dia ly": true,
    "GDKT & PL": true,
    "Vat ly": true,
    "Sinh hoc": true,
    "Tin hoc": true,
    "Cong nghe": true,
    "Ngoai ngu": true
},
"mon_thi_tot_nghiep": {
    "Ngu van": true,
    "Toan": true,
    "Mon tu chon 1": "",
    "Mon tu chon 2": ""
},
"phuong_thuc_xet_tuyen": {
    "Xet diem hoc ba THPT": true,
    "Xet diem thi tot nghiep THPT": true,
    "Xet diem thi DGNL": true,
    "Xet diem thi V-SAT": true,
    "Xet tuyen thang": true
}
}`

// FormExtractionUserPrompt is the user-turn text accompanying the image.
// The %s slot carries optional OCR/context text.
const FormExtractionUserPrompt = `Extract and normalize the information according to the requirements above.

%s`
